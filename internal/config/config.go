// Package config provides configuration management for the learning agent.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/policy"
	"github.com/yourusername/learning-agent/internal/regime"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Engine     EngineConfig     `mapstructure:"engine" validate:"required"`
	Regime     RegimeConfig     `mapstructure:"regime" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Reports    ReportsConfig    `mapstructure:"reports" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Address            string        `mapstructure:"address" validate:"required"`
	HealthAddress      string        `mapstructure:"health_address"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes       int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	RateLimitPerSecond float64       `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst" validate:"gte=0"`
}

// EngineConfig represents the policy engine calibration
type EngineConfig struct {
	DefaultMode       string `mapstructure:"default_mode" validate:"required,learningmode"`
	policy.Thresholds `mapstructure:",squash"`
}

// RegimeConfig represents the regime classifier calibration and default indicator windows
type RegimeConfig struct {
	regime.Config `mapstructure:",squash"`
	Indicators    models.IndicatorSettings `mapstructure:"indicators" validate:"required"`
}

// DatabaseConfig represents the optional audit store connection
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// MarketDataConfig represents the optional OHLCV source
type MarketDataConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	BaseURL           string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
	DefaultLimit      int     `mapstructure:"default_limit" validate:"gte=0"`
}

// ReportsConfig represents retention of generated reports
type ReportsConfig struct {
	TTL             time.Duration `mapstructure:"ttl" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
	MaxReports      int           `mapstructure:"max_reports" validate:"gte=0"`
}

// SchedulerConfig represents background maintenance jobs
type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	CacheSweep     string `mapstructure:"cache_sweep"`
	RetentionPrune string `mapstructure:"retention_prune"`
	RetentionDays  int    `mapstructure:"retention_days" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DefaultMode returns the learning mode used when a request does not name one
func (c *Config) DefaultMode() models.LearningMode {
	return models.LearningMode(c.Engine.DefaultMode)
}
