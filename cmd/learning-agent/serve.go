package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/learning-agent/internal/api"
	"github.com/yourusername/learning-agent/internal/health"
	"github.com/yourusername/learning-agent/internal/metrics"
	"github.com/yourusername/learning-agent/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with health checks and maintenance jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsPath = cfg.Metrics.Path
	}

	checks := map[string]health.Checker{}
	if a.db != nil {
		checks["database"] = a.db
	}
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Address:     cfg.Server.HealthAddress,
		Logger:      appLog,
		Checks:      checks,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	sched, err := startScheduler(a)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg.Server, a.learning, a.classify, metricsPath, appLog)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	healthServer.SetReady(true)
	appLog.WithFields(logrus.Fields{
		"address": cfg.Server.Address,
		"version": Version,
	}).Info("Learning agent ready")

	select {
	case err = <-errCh:
		if err != nil {
			appLog.WithError(err).Error("API server stopped unexpectedly")
		}
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	}

	healthServer.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		appLog.WithError(shutdownErr).Warn("API server shutdown incomplete")
	}
	if sched != nil {
		if stopErr := sched.Stop(); stopErr != nil {
			appLog.WithError(stopErr).Warn("Scheduler shutdown incomplete")
		}
	}
	_ = healthServer.Shutdown()

	return err
}

// startScheduler registers the enabled maintenance jobs; nil means nothing was scheduled
func startScheduler(a *app) (*scheduler.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}

	sched := scheduler.NewScheduler(appLog)
	if cfg.Scheduler.CacheSweep != "" {
		if err := sched.ScheduleCacheSweep(cfg.Scheduler.CacheSweep, a.store); err != nil {
			return nil, err
		}
	}
	if a.repos != nil && cfg.Scheduler.RetentionPrune != "" && cfg.Scheduler.RetentionDays > 0 {
		if err := sched.ScheduleRetentionPrune(cfg.Scheduler.RetentionPrune, a.repos.LearningRun, cfg.Scheduler.RetentionDays); err != nil {
			return nil, err
		}
	}
	if len(sched.Jobs()) == 0 {
		return nil, nil
	}
	if err := sched.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	return sched, nil
}
