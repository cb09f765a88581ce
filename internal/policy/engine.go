// Package policy turns a batch of trade outcomes into bounded, sparse adjustments of the
// caller's operating policy. Each call is a pure function of its input.
package policy

import (
	"fmt"

	"github.com/yourusername/learning-agent/internal/analytics"
	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/regime"
)

// Input is the normalised view of a learn request shared by every strategy
type Input struct {
	// Trades holds the executed trades in chronological order
	Trades       []models.Trade
	Policy       models.PolicyConfig
	Portfolio    *models.PortfolioMetrics
	WindowSize   int
	Regime       *models.RegimeClassification
	AssetRegimes map[string]*models.RegimeClassification
}

// Strategy is one variant of the adjustment algorithm
type Strategy interface {
	Mode() models.LearningMode
	Learn(in *Input) models.LearningResult
}

// Engine selects a strategy by learning mode and runs it
type Engine struct {
	thresholds Thresholds
	classifier *regime.Classifier
	strategies map[models.LearningMode]Strategy
}

// NewEngine wires the four built-in strategies. A nil classifier disables regime
// conditioning.
func NewEngine(th Thresholds, classifier *regime.Classifier) *Engine {
	e := &Engine{
		thresholds: th,
		classifier: classifier,
		strategies: make(map[models.LearningMode]Strategy),
	}
	e.Register(NewGlobalStrategy(th, models.LearningModeGlobal, MedianReweighter{Step: th.WeightStep}, TrendNudge{}))
	e.Register(NewGlobalStrategy(th, models.LearningModeZeroSum, ZeroSumReweighter{Step: th.WeightStep}, TrendNudge{}))
	e.Register(NewGlobalStrategy(th, models.LearningModeRegimeAware, MedianReweighter{Step: th.WeightStep}, RegimePreference{}))
	e.Register(NewAssetStrategy(th))
	return e
}

// Register adds or replaces the strategy serving s.Mode()
func (e *Engine) Register(s Strategy) {
	e.strategies[s.Mode()] = s
}

// Thresholds returns the calibration in use
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Learn runs one learning cycle. An empty mode selects global. Only an unknown mode is
// an error; thin or degenerate data is reported through the result state.
func (e *Engine) Learn(req models.LearnRequest) (models.LearningResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = models.LearningModeGlobal
	}
	strategy, ok := e.strategies[mode]
	if !ok {
		return models.LearningResult{}, fmt.Errorf("%w: %q", models.ErrInvalidMode, mode)
	}

	in := &Input{
		Trades:     analytics.Chronological(models.ExecutedTrades(req.TradeHistory)),
		Policy:     req.CurrentPolicy,
		Portfolio:  req.PortfolioMetrics,
		WindowSize: req.WindowSize,
	}

	if e.classifier != nil {
		settings := models.DefaultIndicatorSettings()
		if req.Indicators != nil {
			settings = *req.Indicators
		}
		if len(req.PriceHistory) > 0 {
			in.Regime = e.classify(req.Symbol, req.PriceHistory, settings)
		}
		if len(req.AssetPriceHistory) > 0 {
			in.AssetRegimes = make(map[string]*models.RegimeClassification, len(req.AssetPriceHistory))
			for asset, bars := range req.AssetPriceHistory {
				if c := e.classify(asset, bars, settings); c != nil {
					in.AssetRegimes[asset] = c
				}
			}
		}
	}

	result := strategy.Learn(in)
	result.Mode = mode
	return result, nil
}

// classify returns nil unless the classifier reached a conclusion
func (e *Engine) classify(symbol string, bars []models.PricePoint, s models.IndicatorSettings) *models.RegimeClassification {
	c := e.classifier.Classify(models.ClassifyRequest{Symbol: symbol, PriceHistory: bars, Indicators: s})
	if c.State != models.ClassificationReady {
		return nil
	}
	return c
}

// emptyResult is the shared shape of a result that proposes nothing
func emptyResult(state models.LearningState, reasoning ...string) models.LearningResult {
	return models.LearningResult{
		State:     state,
		Deltas:    models.NewPolicyDelta(),
		Reasoning: append([]string{}, reasoning...),
	}
}
