package policy

import (
	"fmt"

	"github.com/yourusername/learning-agent/internal/analytics"
	"github.com/yourusername/learning-agent/internal/models"
)

// GlobalStrategy learns over the whole trade history. Decisions are evaluated in a fixed
// order: reweighting, risk sizing, regime conditioning, then bias and guardrail flags.
type GlobalStrategy struct {
	th         Thresholds
	mode       models.LearningMode
	reweighter Reweighter
	bias       BiasAdjuster
}

// NewGlobalStrategy builds a whole-history strategy from a reweighting rule and a bias rule
func NewGlobalStrategy(th Thresholds, mode models.LearningMode, reweighter Reweighter, bias BiasAdjuster) *GlobalStrategy {
	return &GlobalStrategy{th: th, mode: mode, reweighter: reweighter, bias: bias}
}

// Mode implements Strategy
func (s *GlobalStrategy) Mode() models.LearningMode {
	return s.mode
}

// Learn implements Strategy
func (s *GlobalStrategy) Learn(in *Input) models.LearningResult {
	th := s.th.windowed(in.WindowSize)
	trades := in.Trades

	if len(trades) == 0 {
		res := emptyResult(models.LearningStateInsufficientData, "No executed trades in history. Nothing to learn from.")
		res.Regime = in.Regime
		return res
	}

	metrics := analytics.CalculateMetrics(trades)
	if len(trades) < th.MinTradesForLearning {
		res := emptyResult(models.LearningStateWarmup, fmt.Sprintf(
			"Awaiting more data: at least %d trades are required for active learning.", th.MinTradesForLearning))
		res.Metrics = &metrics
		res.Regime = in.Regime
		return res
	}

	confidence := th.Confidence(trades, metrics.MaxDrawdown)
	if confidence < th.ConfidenceFloor {
		res := emptyResult(models.LearningStateInsufficientData, lowConfidenceReason(confidence, th.ConfidenceFloor))
		res.Confidence = confidence
		res.Metrics = &metrics
		res.Regime = in.Regime
		return res
	}

	delta := models.NewPolicyDelta()
	reasoning := make([]string, 0)

	accuracies := analytics.AgentAccuracy(trades, th.AccuracyWindow)
	weights, line := s.reweighter.Reweight(accuracies, in.Policy)
	for agent, d := range weights {
		delta.AgentWeights[agent] = d
	}
	if line != "" {
		reasoning = append(reasoning, line)
	}

	clustering := analytics.DetectDrawdownClustering(trades, th.clusteringParams())
	reasoning = append(reasoning, th.adjustRisk(sizingMetrics(metrics, in.Portfolio), clustering, &delta)...)

	if in.Regime.IsVolatile() && th.VolatilePositionCut > 0 {
		delta.Risk[models.RiskFieldMaxPositionPct] = roundDelta(-th.VolatilePositionCut)
		reasoning = append(reasoning, "Volatile market regime detected. Reducing maximum position size.")
	}
	reasoning = append(reasoning, s.bias.AdjustBias(in, th, &delta)...)

	if clustering {
		delta.Guardrails[models.GuardrailDrawdownClustering] = true
	}
	if analytics.DetectOvertrading(trades, th.overtradingParams()) {
		delta.Guardrails[models.GuardrailOvertrading] = true
		reasoning = append(reasoning, "Overtrading detected: high frequency of trades with low win rate.")
	}
	biased := analytics.DetectConfirmationBias(accuracies, in.Policy.AgentWeights, th.ConfirmationHighWeight)
	for _, agent := range analytics.SortedKeys(biased) {
		if !biased[agent] {
			continue
		}
		delta.Guardrails[models.GuardrailConfirmationBias+":"+agent] = true
		reasoning = append(reasoning, fmt.Sprintf(
			"Confirmation bias detected for agent '%s': high weight but low accuracy.", agent))
	}

	return models.LearningResult{
		State:      models.LearningStateActive,
		Confidence: confidence,
		Deltas:     delta,
		Reasoning:  reasoning,
		Metrics:    &metrics,
		Regime:     in.Regime,
	}
}

// sizingMetrics lets caller-supplied portfolio figures override the derived ones
func sizingMetrics(derived models.PerformanceMetrics, portfolio *models.PortfolioMetrics) models.PortfolioMetrics {
	if portfolio != nil {
		return *portfolio
	}
	return models.PortfolioMetrics{
		WinRate:       derived.WinRate,
		AverageReturn: derived.AverageReturn,
		MaxDrawdown:   derived.MaxDrawdown,
		SharpeRatio:   derived.SharpeRatio,
	}
}

// adjustRisk cuts risk on a single bad signal and raises it only when every
// performance figure clears its bar
func (t Thresholds) adjustRisk(m models.PortfolioMetrics, clustering bool, delta *models.PolicyDelta) []string {
	switch {
	case clustering:
		delta.Risk[models.RiskFieldRiskPerTrade] = roundDelta(-t.RiskDecreaseStep)
		return []string{"Drawdown clustering detected. Reducing risk."}
	case m.MaxDrawdown > t.HighDrawdown:
		delta.Risk[models.RiskFieldRiskPerTrade] = roundDelta(-t.RiskDecreaseStep)
		return []string{"High drawdown detected. Reducing risk."}
	case m.WinRate > t.RiskUpWinRate && m.SharpeRatio > t.RiskUpSharpe && m.MaxDrawdown < t.RiskUpMaxDrawdown:
		delta.Risk[models.RiskFieldRiskPerTrade] = roundDelta(t.RiskIncreaseStep)
		return []string{"Strong performance metrics observed. Cautiously increasing risk."}
	}
	return nil
}

func (t Thresholds) clusteringParams() analytics.ClusteringParams {
	return analytics.ClusteringParams{
		Lookback:     t.ClusterLookback,
		HeavyLossPct: t.ClusterHeavyLoss,
		ClusterSize:  t.ClusterSize,
	}
}

func (t Thresholds) overtradingParams() analytics.OvertradingParams {
	return analytics.OvertradingParams{
		Lookback:           t.OvertradingLookback,
		FrequencyThreshold: t.OvertradingFrequency,
		WinRateFloor:       t.OvertradingWinFloor,
	}
}

func lowConfidenceReason(confidence, floor float64) string {
	return fmt.Sprintf("Learning confidence %.2f is below the %.2f floor. No adjustments proposed.", confidence, floor)
}
