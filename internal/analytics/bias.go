package analytics

import "github.com/yourusername/learning-agent/internal/models"

// OvertradingParams configures DetectOvertrading
type OvertradingParams struct {
	Lookback           int
	FrequencyThreshold int
	WinRateFloor       float64
}

// DefaultOvertradingParams returns a 50-trade lookback, 10-trade frequency, 40% floor
func DefaultOvertradingParams() OvertradingParams {
	return OvertradingParams{Lookback: 50, FrequencyThreshold: 10, WinRateFloor: 0.4}
}

// ClusteringParams configures DetectDrawdownClustering
type ClusteringParams struct {
	Lookback     int
	HeavyLossPct float64
	ClusterSize  int
}

// DefaultClusteringParams returns a 15-trade lookback, -2% severity, 3-trade cluster
func DefaultClusteringParams() ClusteringParams {
	return ClusteringParams{Lookback: 15, HeavyLossPct: -0.02, ClusterSize: 3}
}

// DefaultTrendBiasWindow is the lookback used for TrendBias
const DefaultTrendBiasWindow = 50

// minTrendBiasTrades is the smallest window in which a directional bias is measured
const minTrendBiasTrades = 3

// TrendBias is the long win rate minus the short win rate over the recent window.
// It is neutral (0) with fewer than three trades or when either side has none.
func TrendBias(trades []models.Trade, window int) float64 {
	recent := Recent(trades, window)
	if len(recent) < minTrendBiasTrades {
		return 0
	}

	longs, shorts := SplitByAction(recent)
	if len(longs) == 0 || len(shorts) == 0 {
		return 0
	}
	return WinRate(longs) - WinRate(shorts)
}

// SplitByAction partitions trades into buys and sells; holds are dropped
func SplitByAction(trades []models.Trade) (longs, shorts []models.Trade) {
	for _, t := range trades {
		switch t.Action {
		case models.ActionBuy:
			longs = append(longs, t)
		case models.ActionSell:
			shorts = append(shorts, t)
		}
	}
	return longs, shorts
}

// DetectOvertrading flags a busy window that is also losing
func DetectOvertrading(trades []models.Trade, p OvertradingParams) bool {
	recent := Recent(trades, p.Lookback)
	if len(recent) == 0 || len(recent) < p.FrequencyThreshold {
		return false
	}
	return WinRate(recent) < p.WinRateFloor
}

// DetectDrawdownClustering flags several heavy losses inside a short window
func DetectDrawdownClustering(trades []models.Trade, p ClusteringParams) bool {
	return CountHeavyLosses(Recent(trades, p.Lookback), p.HeavyLossPct) >= p.ClusterSize
}

// CountHeavyLosses counts trades whose loss is beyond threshold (a negative fraction)
func CountHeavyLosses(trades []models.Trade, threshold float64) int {
	n := 0
	for _, t := range trades {
		if t.PnLPct < threshold {
			n++
		}
	}
	return n
}

// DetectConfirmationBias flags sources whose weight exceeds highWeight while their
// accuracy sits below the median accuracy. Sources without an accuracy are skipped.
func DetectConfirmationBias(accuracies, weights map[string]float64, highWeight float64) map[string]bool {
	flags := make(map[string]bool)
	if len(accuracies) == 0 {
		return flags
	}

	median := Median(MapValues(accuracies))
	for agent, weight := range weights {
		accuracy, ok := accuracies[agent]
		if !ok {
			continue
		}
		flags[agent] = weight > highWeight && accuracy < median
	}
	return flags
}
