package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/learning-agent/internal/logger"
	"github.com/yourusername/learning-agent/internal/marketdata"
	"github.com/yourusername/learning-agent/internal/metrics"
	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/regime"
	"github.com/yourusername/learning-agent/internal/reportcache"
)

// ClassifyService runs regime classifications
type ClassifyService struct {
	classifier        *regime.Classifier
	source            marketdata.PriceSource
	store             *reportcache.Store
	validator         *RequestValidator
	defaultIndicators models.IndicatorSettings
	fetchLimit        int
	regimeLog         *logger.RegimeLogger
	now               func() time.Time
}

// ClassifyServiceConfig holds the collaborators of a ClassifyService. Source and Store are optional.
type ClassifyServiceConfig struct {
	Classifier        *regime.Classifier
	Source            marketdata.PriceSource
	Store             *reportcache.Store
	DefaultIndicators models.IndicatorSettings
	FetchLimit        int
	Logger            *logrus.Logger
}

// NewClassifyService creates a classification service
func NewClassifyService(cfg ClassifyServiceConfig) *ClassifyService {
	indicators := cfg.DefaultIndicators
	if indicators == (models.IndicatorSettings{}) {
		indicators = models.DefaultIndicatorSettings()
	}

	return &ClassifyService{
		classifier:        cfg.Classifier,
		source:            cfg.Source,
		store:             cfg.Store,
		validator:         NewRequestValidator(),
		defaultIndicators: indicators,
		fetchLimit:        cfg.FetchLimit,
		regimeLog:         logger.NewRegimeLogger(cfg.Logger),
		now:               time.Now,
	}
}

// Classify labels the regime of the request's price history. A request that names a symbol but
// carries no bars is served from the configured price source when there is one.
func (s *ClassifyService) Classify(ctx context.Context, req models.ClassifyRequest) (*models.ClassifyResponse, error) {
	if req.Indicators == (models.IndicatorSettings{}) {
		req.Indicators = s.defaultIndicators
	}
	if err := s.validator.ValidateClassifyRequest(&req); err != nil {
		metrics.RecordLearningError("classify", errorReason(err))
		return nil, err
	}

	if len(req.PriceHistory) == 0 && req.Symbol != "" && s.source != nil {
		bars, err := s.fetch(ctx, req.Symbol, req.Timeframe, s.limitFor(req.Indicators, 0))
		if err != nil {
			return nil, err
		}
		req.PriceHistory = bars
	}

	return s.run(req), nil
}

// ClassifySymbol fetches the latest bars for symbol and classifies them
func (s *ClassifyService) ClassifySymbol(ctx context.Context, symbol, timeframe string, limit int) (*models.ClassifyResponse, error) {
	if symbol == "" {
		return nil, models.ErrSymbolRequired
	}
	if s.source == nil {
		metrics.RecordLearningError("classify", errorReason(models.ErrPriceSourceMissing))
		return nil, models.ErrPriceSourceMissing
	}

	bars, err := s.fetch(ctx, symbol, timeframe, s.limitFor(s.defaultIndicators, limit))
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", models.ErrEmptyPriceSeries, symbol)
	}

	req := models.ClassifyRequest{
		Symbol:       symbol,
		Timeframe:    timeframe,
		PriceHistory: bars,
		Indicators:   s.defaultIndicators,
	}
	if err := s.validator.ValidateClassifyRequest(&req); err != nil {
		return nil, err
	}
	return s.run(req), nil
}

func (s *ClassifyService) run(req models.ClassifyRequest) *models.ClassifyResponse {
	start := time.Now()
	classification := s.classifier.Classify(req)
	elapsed := time.Since(start)

	resp := &models.ClassifyResponse{
		Status:               StatusSuccess,
		ReportID:             uuid.NewString(),
		GeneratedAt:          s.now().UTC(),
		RegimeClassification: *classification,
	}

	metrics.RecordClassification(resp.State, string(resp.Regime), resp.Confidence, elapsed.Seconds())
	s.regimeLog.LogClassification(resp.ReportID, resp.Symbol, resp.Timeframe, resp.State, string(resp.Regime),
		resp.Confidence, len(req.PriceHistory), float64(elapsed.Microseconds())/1000)
	if resp.IsVolatile() {
		s.regimeLog.LogVolatilityOverride(resp.Symbol, resp.Explanation)
	}

	if s.store != nil {
		s.store.Put(&reportcache.Report{
			ID:        resp.ReportID,
			Kind:      reportcache.KindRegime,
			CreatedAt: resp.GeneratedAt,
			Regime:    resp,
		})
	}
	return resp
}

func (s *ClassifyService) fetch(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error) {
	start := time.Now()
	bars, err := s.source.FetchPrices(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch price history for %s: %w", symbol, err)
	}
	s.regimeLog.LogPriceFetch(symbol, timeframe, len(bars), float64(time.Since(start).Microseconds())/1000)
	return bars, nil
}

// limitFor asks for enough bars to clear the classifier's readiness threshold
func (s *ClassifyService) limitFor(settings models.IndicatorSettings, requested int) int {
	limit := requested
	if limit <= 0 {
		limit = s.fetchLimit
	}
	if minBars := s.classifier.MinBars(settings); limit < minBars {
		limit = minBars
	}
	return limit
}
