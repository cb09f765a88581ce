package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/policy"
	"github.com/yourusername/learning-agent/internal/regime"
)

// EnvPrefix prefixes every environment override, e.g. LEARNING_AGENT_SERVER_ADDRESS
const EnvPrefix = "LEARNING_AGENT"

const defaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults behaves like Load but tolerates a missing file, falling back to
// defaults and environment variables
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := setDefaults(v); err != nil {
		return nil, err
	}
	return v, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers a default for every key so environment overrides apply even
// when the file omits a section
func setDefaults(v *viper.Viper) error {
	v.SetDefault("app.name", "learning-agent")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.health_address", ":8081")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.rate_limit_per_second", 50)
	v.SetDefault("server.rate_limit_burst", 100)

	v.SetDefault("engine.default_mode", string(models.LearningModeGlobal))
	if err := setStructDefaults(v, "engine", policy.DefaultThresholds()); err != nil {
		return err
	}
	if err := setStructDefaults(v, "regime", regime.DefaultConfig()); err != nil {
		return err
	}
	if err := setStructDefaults(v, "regime.indicators", models.DefaultIndicatorSettings()); err != nil {
		return err
	}

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("market_data.enabled", false)
	v.SetDefault("market_data.timeout_seconds", 10)
	v.SetDefault("market_data.retry_attempts", 3)
	v.SetDefault("market_data.requests_per_second", 5)
	v.SetDefault("market_data.burst", 5)
	v.SetDefault("market_data.default_limit", 200)

	v.SetDefault("reports.ttl", "1h")
	v.SetDefault("reports.cleanup_interval", "10m")
	v.SetDefault("reports.max_reports", 1000)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.cache_sweep", "@every 5m")
	v.SetDefault("scheduler.retention_prune", "0 3 * * *")
	v.SetDefault("scheduler.retention_days", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	return nil
}

func setStructDefaults(v *viper.Viper, prefix string, defaults interface{}) error {
	values := map[string]interface{}{}
	if err := mapstructure.Decode(defaults, &values); err != nil {
		return fmt.Errorf("failed to build %s defaults: %w", prefix, err)
	}
	for key, value := range values {
		v.SetDefault(prefix+"."+key, value)
	}
	return nil
}
