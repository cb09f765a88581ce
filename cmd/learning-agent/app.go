package main

import (
	"context"
	"fmt"

	"github.com/yourusername/learning-agent/internal/database"
	"github.com/yourusername/learning-agent/internal/marketdata"
	"github.com/yourusername/learning-agent/internal/policy"
	"github.com/yourusername/learning-agent/internal/regime"
	"github.com/yourusername/learning-agent/internal/reportcache"
	"github.com/yourusername/learning-agent/internal/repository"
	"github.com/yourusername/learning-agent/internal/service"
)

// app holds the wired components shared by every command
type app struct {
	store    *reportcache.Store
	db       *database.DB
	repos    *repository.Repositories
	source   *marketdata.Client
	learning *service.LearningService
	classify *service.ClassifyService
}

// newApp wires services from the loaded configuration. The audit store and the price source
// are connected only when enabled.
func newApp(ctx context.Context, withAudit bool) (*app, error) {
	a := &app{
		store: reportcache.NewStore(cfg.Reports.TTL, cfg.Reports.CleanupInterval, cfg.Reports.MaxReports),
	}

	classifier := regime.NewClassifier(cfg.Regime.Config)
	engine := policy.NewEngine(cfg.Engine.Thresholds, classifier)

	learningCfg := service.LearningServiceConfig{
		Engine:            engine,
		Store:             a.store,
		DefaultMode:       cfg.DefaultMode(),
		DefaultIndicators: cfg.Regime.Indicators,
		Logger:            appLog,
	}

	if withAudit && cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audit store: %w", err)
		}
		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize repositories: %w", err)
		}
		a.db = db
		a.repos = repos
		learningCfg.Runs = repos.LearningRun
	}

	classifyCfg := service.ClassifyServiceConfig{
		Classifier:        classifier,
		Store:             a.store,
		DefaultIndicators: cfg.Regime.Indicators,
		FetchLimit:        cfg.MarketData.DefaultLimit,
		Logger:            appLog,
	}
	if cfg.MarketData.Enabled {
		a.source = marketdata.NewClient(cfg.MarketData, appLog)
		classifyCfg.Source = a.source
	}

	a.learning = service.NewLearningService(learningCfg)
	a.classify = service.NewClassifyService(classifyCfg)
	return a, nil
}

// Close releases external connections
func (a *app) Close() {
	if a.source != nil {
		_ = a.source.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
