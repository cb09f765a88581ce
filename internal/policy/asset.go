package policy

import (
	"fmt"
	"math"
	"strings"

	"github.com/yourusername/learning-agent/internal/analytics"
	"github.com/yourusername/learning-agent/internal/models"
)

// AssetStrategy learns per asset: it scores each warmed-up asset, proposes an allocation
// bias for clear out- or under-performers and cuts global risk once when any asset's
// recent trades show a losing streak or a deep drawdown.
type AssetStrategy struct {
	th Thresholds
}

// NewAssetStrategy creates the asset-aware strategy
func NewAssetStrategy(th Thresholds) *AssetStrategy {
	return &AssetStrategy{th: th}
}

// Mode implements Strategy
func (s *AssetStrategy) Mode() models.LearningMode {
	return models.LearningModeAsset
}

// Learn implements Strategy
func (s *AssetStrategy) Learn(in *Input) models.LearningResult {
	th := s.th
	if len(in.Trades) == 0 {
		return emptyResult(models.LearningStateInsufficientData, "No executed trades in history. Nothing to learn from.")
	}

	metrics := analytics.CalculateMetrics(in.Trades)
	confidence := th.Confidence(in.Trades, metrics.MaxDrawdown)
	if th.GateAssetMode && confidence < th.ConfidenceFloor {
		res := emptyResult(models.LearningStateInsufficientData, lowConfidenceReason(confidence, th.ConfidenceFloor))
		res.Confidence = confidence
		res.Metrics = &metrics
		return res
	}

	window := in.WindowSize
	if window <= 0 {
		window = th.AssetWindow
	}

	delta := models.NewPolicyDelta()
	reasoning := make([]string, 0)
	groups := analytics.GroupByAsset(in.Trades)
	assessments := make([]models.AssetAssessment, 0, len(groups))
	var stressed []string

	for _, g := range groups {
		a := models.AssetAssessment{AssetID: g.AssetID, Trades: len(g.Trades)}
		if len(g.Trades) < th.AssetWarmupTrades {
			a.Warmup = true
			assessments = append(assessments, a)
			reasoning = append(reasoning, fmt.Sprintf(
				"Asset '%s' is in warmup (%d of %d trades). No bias proposed.", g.AssetID, len(g.Trades), th.AssetWarmupTrades))
			continue
		}

		a.WinRate = analytics.WinRate(g.Trades)
		a.MaxDrawdown = analytics.TradeDrawdown(g.Trades)
		a.Volatility = analytics.Volatility(g.Trades)
		a.Score = th.assetScore(a)

		switch {
		case a.Score > th.AssetUpperScore:
			if in.AssetRegimes[g.AssetID].IsVolatile() {
				reasoning = append(reasoning, fmt.Sprintf(
					"Asset '%s' scored %.2f but its market is in a volatile transition. Positive bias withheld.", g.AssetID, a.Score))
				break
			}
			a.Bias = roundDelta(th.AssetBiasStep)
			reasoning = append(reasoning, fmt.Sprintf(
				"Asset '%s' scored %.2f. Increasing its allocation bias.", g.AssetID, a.Score))
		case a.Score < th.AssetLowerScore:
			a.Bias = roundDelta(-th.AssetBiasStep)
			reasoning = append(reasoning, fmt.Sprintf(
				"Asset '%s' scored %.2f. Decreasing its allocation bias.", g.AssetID, a.Score))
		}
		if a.Bias != 0 {
			delta.AssetBiases[g.AssetID] = a.Bias
		}

		recent := analytics.Recent(g.Trades, window)
		a.MaxConsecutiveLosses = analytics.MaxConsecutiveLosses(recent)
		a.RecentDrawdown = analytics.TradeDrawdown(recent)
		if a.MaxConsecutiveLosses >= th.ConsecutiveLossLimit || a.RecentDrawdown > th.RecentDrawdownLimit {
			stressed = append(stressed, g.AssetID)
		}

		assessments = append(assessments, a)
	}

	if len(stressed) > 0 {
		delta.Risk[models.RiskFieldRiskPerTrade] = roundDelta(-th.RiskDecreaseStep)
		delta.Guardrails[models.GuardrailRecentLosses] = true
		reasoning = append(reasoning, fmt.Sprintf(
			"Recent losing streak or drawdown detected for %s. Reducing risk.", strings.Join(stressed, ", ")))
	}

	state := models.LearningStateSuccess
	if allWarmup(assessments) {
		state = models.LearningStateWarmup
	}

	return models.LearningResult{
		State:      state,
		Confidence: confidence,
		Deltas:     delta,
		Reasoning:  reasoning,
		Metrics:    &metrics,
		Assets:     assessments,
	}
}

// assetScore blends win rate with capped inverse drawdown and inverse volatility scores
func (t Thresholds) assetScore(a models.AssetAssessment) float64 {
	ddScore := math.Max(0, 1-a.MaxDrawdown/t.AssetDrawdownCap)
	volScore := math.Max(0, 1-a.Volatility/t.AssetVolatilityCap)
	return models.Clamp01(t.AssetWinRateWeight*a.WinRate + t.AssetDrawdownWeight*ddScore + t.AssetVolatilityWeight*volScore)
}

func allWarmup(assessments []models.AssetAssessment) bool {
	for _, a := range assessments {
		if !a.Warmup {
			return false
		}
	}
	return true
}
