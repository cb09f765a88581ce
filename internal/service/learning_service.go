// Package service orchestrates learning and regime classification calls: validation, optional
// price fetching, engine execution, report retention, auditing and metrics.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/learning-agent/internal/logger"
	"github.com/yourusername/learning-agent/internal/metrics"
	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/policy"
	"github.com/yourusername/learning-agent/internal/reportcache"
	"github.com/yourusername/learning-agent/internal/repository"
)

// StatusSuccess is the response status of every completed call
const StatusSuccess = "success"

// auditTimeout bounds the audit insert so a slow database never stalls a learning call
const auditTimeout = 5 * time.Second

// LearningService runs learning cycles
type LearningService struct {
	engine            *policy.Engine
	store             *reportcache.Store
	runs              repository.LearningRunRepository
	validator         *RequestValidator
	defaultMode       models.LearningMode
	defaultIndicators models.IndicatorSettings
	learningLog       *logger.LearningLogger
	auditLog          *logger.AuditLogger
	now               func() time.Time
}

// LearningServiceConfig holds the collaborators of a LearningService. Store and Runs are optional.
type LearningServiceConfig struct {
	Engine            *policy.Engine
	Store             *reportcache.Store
	Runs              repository.LearningRunRepository
	DefaultMode       models.LearningMode
	DefaultIndicators models.IndicatorSettings
	Logger            *logrus.Logger
}

// NewLearningService creates a learning service
func NewLearningService(cfg LearningServiceConfig) *LearningService {
	mode := cfg.DefaultMode
	if mode == "" {
		mode = models.LearningModeGlobal
	}
	indicators := cfg.DefaultIndicators
	if indicators == (models.IndicatorSettings{}) {
		indicators = models.DefaultIndicatorSettings()
	}

	return &LearningService{
		engine:            cfg.Engine,
		store:             cfg.Store,
		runs:              cfg.Runs,
		validator:         NewRequestValidator(),
		defaultMode:       mode,
		defaultIndicators: indicators,
		learningLog:       logger.NewLearningLogger(cfg.Logger),
		auditLog:          logger.NewAuditLogger(cfg.Logger),
		now:               time.Now,
	}
}

// Learn validates the request, runs one learning cycle and records the outcome
func (s *LearningService) Learn(ctx context.Context, req models.LearnRequest) (*models.LearnResponse, error) {
	if req.Mode == "" {
		req.Mode = s.defaultMode
	}
	if err := s.validator.ValidateLearnRequest(&req); err != nil {
		s.learningLog.LogLearningError(string(req.Mode), err)
		metrics.RecordLearningError("learn", errorReason(err))
		return nil, err
	}
	if req.Indicators == nil {
		indicators := s.defaultIndicators
		req.Indicators = &indicators
	}

	start := time.Now()
	result, err := s.engine.Learn(req)
	if err != nil {
		s.learningLog.LogLearningError(string(req.Mode), err)
		metrics.RecordLearningError("learn", errorReason(err))
		return nil, err
	}
	elapsed := time.Since(start)

	resp := &models.LearnResponse{
		Status:         StatusSuccess,
		ReportID:       uuid.NewString(),
		Symbol:         req.Symbol,
		GeneratedAt:    s.now().UTC(),
		LearningResult: result,
	}

	executed := len(models.ExecutedTrades(req.TradeHistory))
	s.record(resp, executed, elapsed)
	s.retain(resp)
	s.persist(ctx, resp, executed)

	return resp, nil
}

func (s *LearningService) record(resp *models.LearnResponse, trades int, elapsed time.Duration) {
	d := resp.Deltas
	metrics.RecordLearningRun(string(resp.Mode), string(resp.State), resp.Confidence, elapsed.Seconds())
	metrics.RecordPolicyAdjustments("agent_weight", len(d.AgentWeights))
	metrics.RecordPolicyAdjustments("risk", len(d.Risk))
	metrics.RecordPolicyAdjustments("strategy_bias", len(d.StrategyBias))
	metrics.RecordPolicyAdjustments("asset_bias", len(d.AssetBiases))
	if d.PreferredRegime != "" {
		metrics.RecordPolicyAdjustments("preferred_regime", 1)
	}

	deltaCount := len(d.AgentWeights) + len(d.Risk) + len(d.StrategyBias) + len(d.AssetBiases)
	s.learningLog.LogLearningCycle(resp.ReportID, string(resp.Mode), string(resp.State), trades,
		resp.Confidence, deltaCount, float64(elapsed.Microseconds())/1000)
	for i, line := range resp.Reasoning {
		s.learningLog.LogDecision(resp.ReportID, i+1, line)
	}
	for _, a := range resp.Assets {
		if a.Warmup {
			s.learningLog.LogAssetWarmup(resp.ReportID, a.AssetID, a.Trades, s.engine.Thresholds().AssetWarmupTrades)
		}
	}

	s.auditDeltas(resp.ReportID, d)
}

// auditDeltas logs every proposed change in a stable order
func (s *LearningService) auditDeltas(reportID string, d models.PolicyDelta) {
	sections := []struct {
		name   string
		values map[string]float64
	}{
		{"agent_weights", d.AgentWeights},
		{"risk", d.Risk},
		{"strategy_bias", d.StrategyBias},
		{"asset_biases", d.AssetBiases},
	}
	for _, section := range sections {
		for _, key := range sortedKeys(section.values) {
			s.auditLog.LogPolicyDelta(reportID, section.name, key, section.values[key])
		}
	}
	if d.PreferredRegime != "" {
		s.auditLog.LogPolicyDelta(reportID, "strategy_bias", "preferred_regime", d.PreferredRegime)
	}

	flags := make([]string, 0, len(d.Guardrails))
	for flag, raised := range d.Guardrails {
		if raised {
			flags = append(flags, flag)
		}
	}
	sort.Strings(flags)
	for _, flag := range flags {
		s.auditLog.LogGuardrail(reportID, flag)
		metrics.RecordGuardrail(flag)
	}
}

func (s *LearningService) retain(resp *models.LearnResponse) {
	if s.store == nil {
		return
	}
	s.store.Put(&reportcache.Report{
		ID:        resp.ReportID,
		Kind:      reportcache.KindLearning,
		CreatedAt: resp.GeneratedAt,
		Learning:  resp,
	})
}

// persist writes the audit row. Failures are logged and never fail the call.
func (s *LearningService) persist(ctx context.Context, resp *models.LearnResponse, trades int) {
	if s.runs == nil {
		return
	}

	run, err := models.NewLearningRun(resp, trades)
	if err != nil {
		metrics.RecordAuditWrite("failure")
		s.auditLog.WithError(err).Error("Failed to encode learning run")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := s.runs.Insert(ctx, run); err != nil {
		metrics.RecordAuditWrite("failure")
		s.auditLog.WithError(err).WithField("report_id", resp.ReportID).Error("Failed to persist learning run")
		return
	}
	metrics.RecordAuditWrite("success")
	s.auditLog.LogRunPersisted(resp.ReportID, run.CreatedAt)
}

// Report returns a retained learning or regime report
func (s *LearningService) Report(id string) (*reportcache.Report, error) {
	if s.store != nil {
		if report, ok := s.store.Get(id); ok {
			return report, nil
		}
	}
	return nil, models.ErrReportNotFound
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// errorReason maps a boundary error to a metrics label
func errorReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidMode):
		return "invalid_mode"
	case errors.Is(err, models.ErrInvalidSettings):
		return "invalid_settings"
	case errors.Is(err, models.ErrUnorderedSeries):
		return "unordered_series"
	case errors.Is(err, models.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, models.ErrSymbolRequired), errors.Is(err, models.ErrPriceSourceMissing),
		errors.Is(err, models.ErrEmptyPriceSeries):
		return "price_source"
	default:
		return "internal"
	}
}
