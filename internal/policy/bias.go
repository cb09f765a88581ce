package policy

import (
	"fmt"
	"math"

	"github.com/yourusername/learning-agent/internal/analytics"
	"github.com/yourusername/learning-agent/internal/models"
)

// BiasAdjuster reacts to a directional bias in the trade history by writing into delta.
// It returns one reasoning line per decision.
type BiasAdjuster interface {
	AdjustBias(in *Input, th Thresholds, delta *models.PolicyDelta) []string
}

// TrendNudge proposes a trend-following bias opposite to a significant trend bias
type TrendNudge struct{}

// AdjustBias implements BiasAdjuster
func (TrendNudge) AdjustBias(in *Input, th Thresholds, delta *models.PolicyDelta) []string {
	bias := analytics.TrendBias(in.Trades, th.TrendBiasWindow)
	if math.Abs(bias) <= th.TrendBiasThreshold {
		return nil
	}
	delta.StrategyBias[models.StrategyBiasTrendFollowing] = roundDelta(-bias * th.TrendBiasScale)
	return []string{"Trend bias detected. Suggesting adjustment."}
}

// RegimePreference recommends a preferred-regime switch when the side the trend bias favours
// (long for a positive bias, short for a negative one) underperforms in the prevailing regime
// and clearly does better in another one
type RegimePreference struct{}

// AdjustBias implements BiasAdjuster
func (RegimePreference) AdjustBias(in *Input, th Thresholds, delta *models.PolicyDelta) []string {
	bias := analytics.TrendBias(in.Trades, th.TrendBiasWindow)
	if math.Abs(bias) <= th.TrendBiasThreshold {
		return nil
	}

	longs, shorts := analytics.SplitByAction(analytics.Recent(in.Trades, th.TrendBiasWindow))
	direction, directional := "Long", longs
	if bias < 0 {
		direction, directional = "Short", shorts
	}

	current := prevailingRegime(in)
	if current == "" {
		return nil
	}

	byRegime := make(map[string][]models.Trade)
	for _, t := range directional {
		if t.MarketRegime != "" {
			byRegime[t.MarketRegime] = append(byRegime[t.MarketRegime], t)
		}
	}

	inCurrent := byRegime[current]
	if len(inCurrent) < th.RegimeMinTrades {
		return nil
	}
	currentRate := analytics.WinRate(inCurrent)
	if currentRate >= th.RegimeUnderperform {
		return nil
	}

	preferred, preferredRate := "", currentRate
	for _, r := range analytics.SortedKeys(byRegime) {
		trades := byRegime[r]
		if r == current || len(trades) < th.RegimeMinTrades {
			continue
		}
		if rate := analytics.WinRate(trades); rate > preferredRate {
			preferred, preferredRate = r, rate
		}
	}
	if preferred == "" || preferred == in.Policy.StrategyBias.PreferredRegime {
		return nil
	}

	delta.PreferredRegime = preferred
	return []string{fmt.Sprintf(
		"%s trades are underperforming in the '%s' regime (win rate %.2f). Recommending preferred regime '%s' (win rate %.2f).",
		direction, current, currentRate, preferred, preferredRate)}
}

// prevailingRegime prefers the classified regime and falls back to the regime recorded
// on the most recent trade
func prevailingRegime(in *Input) string {
	if in.Regime != nil && in.Regime.Regime != "" {
		return string(in.Regime.Regime)
	}
	if n := len(in.Trades); n > 0 {
		return in.Trades[n-1].MarketRegime
	}
	return ""
}
