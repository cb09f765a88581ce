package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/learning-agent/internal/config"
	"github.com/yourusername/learning-agent/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logLevel   string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "learning-agent",
	Short: "Policy learning and market regime decision engine",
	Long: `Learns bounded policy adjustments from executed trade history and classifies
the market regime of a price series. Runs as an HTTP service or as one-shot commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return loadConfig(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (defaults are used when absent)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(serveCmd, learnCmd, classifyCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration, overlays secrets and builds the logger
func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.ApplySecretsFromEnvironment(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.App.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	appLog = logger.NewLoggerForEnvironment(level, cfg.App.Environment)
	appLog.SetOutput(os.Stderr)

	appLog.WithFields(logrus.Fields{
		"environment":  cfg.App.Environment,
		"default_mode": cfg.Engine.DefaultMode,
		"database":     cfg.Database.Enabled,
		"market_data":  cfg.MarketData.Enabled,
	}).Debug("Configuration loaded")
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "learning-agent %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}
