package policy

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/regime"
)

var t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

type tradeSpec struct {
	asset  string
	action models.Action
	pnl    float64
	regime string
}

func buildTrades(specs []tradeSpec) []models.Trade {
	trades := make([]models.Trade, len(specs))
	for i, s := range specs {
		asset := s.asset
		if asset == "" {
			asset = "BTC"
		}
		action := s.action
		if action == "" {
			action = models.ActionBuy
		}
		trades[i] = models.Trade{
			TradeID:      fmt.Sprintf("T%d", i),
			AssetID:      asset,
			Timestamp:    t0.Add(time.Duration(i) * time.Hour),
			Action:       action,
			PnLPct:       s.pnl,
			MarketRegime: s.regime,
		}
	}
	return trades
}

// votedTrades returns 30 buys where every third trade loses. "good" always calls the
// outcome, "bad" always gets it wrong and "mid" always votes buy.
func votedTrades() []models.Trade {
	specs := make([]tradeSpec, 30)
	for i := range specs {
		pnl := 0.01
		if i%3 == 0 {
			pnl = -0.01
		}
		specs[i] = tradeSpec{pnl: pnl}
	}
	trades := buildTrades(specs)
	for i := range trades {
		right, wrong := models.ActionBuy, models.ActionSell
		if !trades[i].IsProfitable() {
			right, wrong = wrong, right
		}
		trades[i].AgentVotes = map[string]models.AgentVote{
			"good": {Action: right, Confidence: 0.8},
			"bad":  {Action: wrong, Confidence: 0.8},
			"mid":  {Action: models.ActionBuy, Confidence: 0.5},
		}
	}
	return trades
}

func defaultPolicy() models.PolicyConfig {
	return models.PolicyConfig{
		AgentWeights: map[string]float64{"good": 0.5, "bad": 0.5, "mid": 0.3},
		Risk:         models.RiskPolicy{RiskPerTrade: 0.01, MaxPositionPct: 0.1, StopLossPct: 0.05},
		StrategyBias: models.StrategyBiasPolicy{PreferredRegime: "neutral"},
	}
}

func newEngine() *Engine {
	return NewEngine(DefaultThresholds(), regime.NewClassifier(regime.DefaultConfig()))
}

func learn(t *testing.T, req models.LearnRequest) models.LearningResult {
	t.Helper()
	res, err := newEngine().Learn(req)
	require.NoError(t, err)
	return res
}

func TestLearnEmptyHistory(t *testing.T) {
	res := learn(t, models.LearnRequest{CurrentPolicy: defaultPolicy()})

	assert.Equal(t, models.LearningStateInsufficientData, res.State)
	assert.Equal(t, models.LearningModeGlobal, res.Mode)
	assert.True(t, res.Deltas.IsEmpty())
	assert.NotEmpty(t, res.Reasoning)
}

func TestLearnWarmupBelowMinimumTrades(t *testing.T) {
	res := learn(t, models.LearnRequest{TradeHistory: votedTrades()[:10], CurrentPolicy: defaultPolicy()})

	assert.Equal(t, models.LearningStateWarmup, res.State)
	assert.True(t, res.Deltas.IsEmpty())
	require.Len(t, res.Reasoning, 1)
	assert.Equal(t, "Awaiting more data: at least 20 trades are required for active learning.", res.Reasoning[0])
	require.NotNil(t, res.Metrics)
	assert.Equal(t, 10, res.Metrics.TotalTrades)
}

func TestLearnSkipsUnexecutedTrades(t *testing.T) {
	trades := votedTrades()[:20]
	skipped := false
	trades[0].Executed = &skipped

	res := learn(t, models.LearnRequest{TradeHistory: trades, CurrentPolicy: defaultPolicy()})
	assert.Equal(t, models.LearningStateWarmup, res.State)
	assert.Equal(t, 19, res.Metrics.TotalTrades)
}

func TestLearnGlobalReweightAndFlags(t *testing.T) {
	res := learn(t, models.LearnRequest{TradeHistory: votedTrades(), CurrentPolicy: defaultPolicy()})

	assert.Equal(t, models.LearningStateActive, res.State)
	assert.InDelta(t, 0.05, res.Deltas.AgentWeights["good"], 1e-12)
	assert.InDelta(t, -0.05, res.Deltas.AgentWeights["bad"], 1e-12)
	_, ok := res.Deltas.AgentWeights["mid"]
	assert.False(t, ok, "median source is left alone")

	assert.Empty(t, res.Deltas.Risk)
	assert.True(t, res.Deltas.Guardrails["confirmation_bias:bad"])
	assert.Equal(t, []string{
		"Adjusting agent weights based on recent performance.",
		"Confirmation bias detected for agent 'bad': high weight but low accuracy.",
	}, res.Reasoning)
	assert.Greater(t, res.Confidence, 0.3)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}

func TestLearnPortfolioMetricsRaiseRisk(t *testing.T) {
	res := learn(t, models.LearnRequest{
		TradeHistory:     votedTrades(),
		CurrentPolicy:    defaultPolicy(),
		PortfolioMetrics: &models.PortfolioMetrics{WinRate: 0.7, SharpeRatio: 1.5, MaxDrawdown: 0.05},
	})

	assert.InDelta(t, 0.0025, res.Deltas.Risk[models.RiskFieldRiskPerTrade], 1e-12)
	require.GreaterOrEqual(t, len(res.Reasoning), 2)
	assert.Equal(t, "Strong performance metrics observed. Cautiously increasing risk.", res.Reasoning[1])
}

func TestLearnHighDrawdownCutsRisk(t *testing.T) {
	res := learn(t, models.LearnRequest{
		TradeHistory:     votedTrades(),
		CurrentPolicy:    defaultPolicy(),
		PortfolioMetrics: &models.PortfolioMetrics{WinRate: 0.7, SharpeRatio: 1.5, MaxDrawdown: 0.2},
	})

	assert.InDelta(t, -0.005, res.Deltas.Risk[models.RiskFieldRiskPerTrade], 1e-12)
	assert.Contains(t, res.Reasoning, "High drawdown detected. Reducing risk.")
}

func TestLearnDrawdownClustering(t *testing.T) {
	specs := make([]tradeSpec, 0, 25)
	for i := 0; i < 22; i++ {
		specs = append(specs, tradeSpec{pnl: 0.01})
	}
	for i := 0; i < 3; i++ {
		specs = append(specs, tradeSpec{pnl: -0.03})
	}

	res := learn(t, models.LearnRequest{TradeHistory: buildTrades(specs), CurrentPolicy: defaultPolicy()})

	assert.Equal(t, models.LearningStateActive, res.State)
	assert.InDelta(t, -0.005, res.Deltas.Risk[models.RiskFieldRiskPerTrade], 1e-12)
	assert.True(t, res.Deltas.Guardrails[models.GuardrailDrawdownClustering])
	assert.Equal(t, []string{"Drawdown clustering detected. Reducing risk."}, res.Reasoning)
}

func TestLearnTrendBiasNudge(t *testing.T) {
	specs := make([]tradeSpec, 0, 30)
	for i := 0; i < 30; i++ {
		if i%3 == 0 {
			specs = append(specs, tradeSpec{action: models.ActionSell, pnl: -0.01})
		} else {
			specs = append(specs, tradeSpec{action: models.ActionBuy, pnl: 0.01})
		}
	}

	res := learn(t, models.LearnRequest{TradeHistory: buildTrades(specs), CurrentPolicy: defaultPolicy()})

	assert.InDelta(t, -0.1, res.Deltas.StrategyBias[models.StrategyBiasTrendFollowing], 1e-12)
	assert.Contains(t, res.Reasoning, "Trend bias detected. Suggesting adjustment.")
}

func TestLearnVolatileRegimeCutsPosition(t *testing.T) {
	bars := linearBars(100)
	last := &bars[len(bars)-1]
	last.High = last.Close * 1.2
	last.Low = last.Close * 0.8

	res := learn(t, models.LearnRequest{
		TradeHistory:  votedTrades(),
		PriceHistory:  bars,
		CurrentPolicy: defaultPolicy(),
	})

	require.NotNil(t, res.Regime)
	assert.Equal(t, models.RegimeVolatileTransition, res.Regime.Regime)
	assert.InDelta(t, -0.02, res.Deltas.Risk[models.RiskFieldMaxPositionPct], 1e-12)
	assert.Equal(t, []string{
		"Adjusting agent weights based on recent performance.",
		"Volatile market regime detected. Reducing maximum position size.",
		"Confirmation bias detected for agent 'bad': high weight but low accuracy.",
	}, res.Reasoning)
}

func TestLearnLowConfidenceSuppressesAdjustments(t *testing.T) {
	specs := make([]tradeSpec, 20)
	for i := range specs {
		pnl := 1.5
		if i%2 == 1 {
			pnl = -0.6
		}
		specs[i] = tradeSpec{pnl: pnl}
	}

	res := learn(t, models.LearnRequest{TradeHistory: buildTrades(specs), CurrentPolicy: defaultPolicy()})

	assert.Equal(t, models.LearningStateInsufficientData, res.State)
	assert.True(t, res.Deltas.IsEmpty())
	assert.Less(t, res.Confidence, 0.3)
	require.Len(t, res.Reasoning, 1)
	assert.True(t, strings.HasPrefix(res.Reasoning[0], "Learning confidence"))
}

func TestLearnZeroSumDeltasCancel(t *testing.T) {
	cases := []map[string]float64{
		{"good": 0.5, "bad": 0.5, "mid": 0.3},
		{"good": 0.98, "bad": 0.5, "mid": 0.3},
		{"good": 0.1, "bad": 0.03, "mid": 0.3},
	}
	for _, weights := range cases {
		policy := defaultPolicy()
		policy.AgentWeights = weights

		res := learn(t, models.LearnRequest{
			Mode:          models.LearningModeZeroSum,
			TradeHistory:  votedTrades(),
			CurrentPolicy: policy,
		})

		require.Len(t, res.Deltas.AgentWeights, 2)
		sum := 0.0
		for _, d := range res.Deltas.AgentWeights {
			sum += d
		}
		assert.Equal(t, 0.0, sum)
		assert.Greater(t, res.Deltas.AgentWeights["good"], 0.0)
		assert.Less(t, res.Deltas.AgentWeights["bad"], 0.0)
	}
}

func TestLearnZeroSumRespectsBounds(t *testing.T) {
	policy := defaultPolicy()
	policy.AgentWeights["good"] = 0.98

	res := learn(t, models.LearnRequest{Mode: models.LearningModeZeroSum, TradeHistory: votedTrades(), CurrentPolicy: policy})
	assert.Equal(t, 0.02, res.Deltas.AgentWeights["good"])
	assert.Equal(t, -0.02, res.Deltas.AgentWeights["bad"])
	assert.Contains(t, res.Reasoning, "Reallocating 0.02 weight from 'bad' to 'good' based on relative accuracy.")
}

func TestLearnRegimeAwarePreference(t *testing.T) {
	specs := make([]tradeSpec, 0, 22)
	for i := 0; i < 8; i++ {
		specs = append(specs, tradeSpec{pnl: 0.01, regime: "ranging"})
	}
	for i := 0; i < 6; i++ {
		specs = append(specs, tradeSpec{action: models.ActionSell, pnl: -0.005, regime: "ranging"})
	}
	upPnL := []float64{0.01, -0.005, 0.01, -0.005, -0.005, -0.005, -0.005, -0.005}
	for _, pnl := range upPnL {
		specs = append(specs, tradeSpec{pnl: pnl, regime: "uptrend"})
	}

	res := learn(t, models.LearnRequest{
		Mode:          models.LearningModeRegimeAware,
		TradeHistory:  buildTrades(specs),
		CurrentPolicy: defaultPolicy(),
	})

	assert.Equal(t, models.LearningStateActive, res.State)
	assert.Equal(t, "ranging", res.Deltas.PreferredRegime)
	assert.NotContains(t, res.Deltas.StrategyBias, models.StrategyBiasTrendFollowing)
	assert.Contains(t, res.Reasoning,
		"Long trades are underperforming in the 'uptrend' regime (win rate 0.25). Recommending preferred regime 'ranging' (win rate 1.00).")
}

func TestLearnRegimeAwareFollowsBiasSignOnBalancedSides(t *testing.T) {
	specs := make([]tradeSpec, 0, 32)
	for i := 0; i < 16; i++ {
		specs = append(specs, tradeSpec{action: models.ActionSell, pnl: -0.005, regime: "ranging"})
	}
	for i := 0; i < 8; i++ {
		specs = append(specs, tradeSpec{pnl: 0.01, regime: "ranging"})
	}
	upPnL := []float64{0.01, -0.005, 0.01, -0.005, -0.005, -0.005, -0.005, -0.005}
	for _, pnl := range upPnL {
		specs = append(specs, tradeSpec{pnl: pnl, regime: "uptrend"})
	}

	res := learn(t, models.LearnRequest{
		Mode:          models.LearningModeRegimeAware,
		TradeHistory:  buildTrades(specs),
		CurrentPolicy: defaultPolicy(),
	})

	assert.Equal(t, models.LearningStateActive, res.State)
	assert.Equal(t, "ranging", res.Deltas.PreferredRegime)
	assert.Contains(t, res.Reasoning,
		"Long trades are underperforming in the 'uptrend' regime (win rate 0.25). Recommending preferred regime 'ranging' (win rate 1.00).")
}

// splitAccuracyTrades returns 50 winning buys. "early" calls the first 30 correctly and
// the last 20 wrongly; "late" does the opposite.
func splitAccuracyTrades() []models.Trade {
	specs := make([]tradeSpec, 50)
	for i := range specs {
		specs[i] = tradeSpec{pnl: 0.01}
	}
	trades := buildTrades(specs)
	for i := range trades {
		early, late := models.ActionBuy, models.ActionSell
		if i >= 30 {
			early, late = late, early
		}
		trades[i].AgentVotes = map[string]models.AgentVote{
			"early": {Action: early, Confidence: 0.7},
			"late":  {Action: late, Confidence: 0.7},
		}
	}
	return trades
}

func TestLearnWindowSizeNarrowsAccuracy(t *testing.T) {
	policy := models.PolicyConfig{AgentWeights: map[string]float64{"early": 0.5, "late": 0.5}}

	for _, mode := range []models.LearningMode{models.LearningModeGlobal, models.LearningModeZeroSum} {
		t.Run(string(mode), func(t *testing.T) {
			full := learn(t, models.LearnRequest{Mode: mode, TradeHistory: splitAccuracyTrades(), CurrentPolicy: policy})
			assert.InDelta(t, 0.05, full.Deltas.AgentWeights["early"], 1e-12)
			assert.InDelta(t, -0.05, full.Deltas.AgentWeights["late"], 1e-12)

			windowed := learn(t, models.LearnRequest{
				Mode:          mode,
				WindowSize:    20,
				TradeHistory:  splitAccuracyTrades(),
				CurrentPolicy: policy,
			})
			assert.InDelta(t, -0.05, windowed.Deltas.AgentWeights["early"], 1e-12)
			assert.InDelta(t, 0.05, windowed.Deltas.AgentWeights["late"], 1e-12)
		})
	}
}

func TestWindowedThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, th, th.windowed(0))

	w := th.windowed(20)
	assert.Equal(t, 20, w.AccuracyWindow)
	assert.Equal(t, 20, w.TrendBiasWindow)
	assert.Equal(t, 20, w.OvertradingLookback)
	assert.Equal(t, th.ClusterLookback, w.ClusterLookback)
}

func TestLearnUnknownMode(t *testing.T) {
	_, err := newEngine().Learn(models.LearnRequest{Mode: "martingale"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidMode))
}

func TestConfidenceIsClamped(t *testing.T) {
	th := DefaultThresholds()
	extreme := buildTrades([]tradeSpec{{pnl: -0.99}, {pnl: 5}, {pnl: -0.99}, {pnl: 12}})

	c := th.Confidence(extreme, 0.99)
	assert.GreaterOrEqual(t, c, 0.0)
	assert.LessOrEqual(t, c, 1.0)

	assert.InDelta(t, 0.3, th.Confidence(nil, 1), 1e-12)
	assert.InDelta(t, 0.6, th.Confidence(nil, 0), 1e-12)
}

func TestDeltaApplyStaysInBounds(t *testing.T) {
	policy := defaultPolicy()
	policy.AgentWeights["good"] = 0.98

	res := learn(t, models.LearnRequest{TradeHistory: votedTrades(), CurrentPolicy: policy})
	applied := res.Deltas.Apply(policy)

	assert.InDelta(t, 1.0, applied.AgentWeights["good"], 1e-12)
	assert.InDelta(t, 0.45, applied.AgentWeights["bad"], 1e-12)
	assert.Equal(t, 0.98, policy.AgentWeights["good"], "input policy is never mutated")
}

func linearBars(n int) []models.PricePoint {
	bars := make([]models.PricePoint, n)
	for i := range bars {
		c := 100 + 2*float64(i)
		bars[i] = models.PricePoint{
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1,
		}
	}
	return bars
}

func TestReweightersTreatUnknownAgentsAsZeroWeight(t *testing.T) {
	accuracies := map[string]float64{"new": 0.9, "old": 0.2}

	deltas, line := MedianReweighter{Step: 0.05}.Reweight(accuracies, models.PolicyConfig{})
	assert.Equal(t, map[string]float64{"new": 0.05}, deltas)
	assert.NotEmpty(t, line)

	deltas, line = ZeroSumReweighter{Step: 0.05}.Reweight(accuracies, models.PolicyConfig{})
	assert.Empty(t, deltas, "nothing to take from an agent without weight")
	assert.Empty(t, line)
}
