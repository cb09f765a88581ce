package analytics

import (
	"math"

	"github.com/yourusername/learning-agent/internal/models"
)

// DefaultBaselineEquity is the starting value of every equity curve
const DefaultBaselineEquity = 100000.0

// EquityCurve compounds baseline by (1 + pnl_pct) per trade. The result always
// holds len(trades)+1 points, the first being the baseline.
func EquityCurve(trades []models.Trade, baseline float64) []float64 {
	curve := make([]float64, 0, len(trades)+1)
	equity := baseline
	curve = append(curve, equity)
	for _, t := range trades {
		equity *= 1 + t.PnLPct
		curve = append(curve, equity)
	}
	return curve
}

// MaxDrawdown is the largest (peak - value) / peak over the curve
func MaxDrawdown(curve []float64) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, value := range curve {
		if value > peak {
			peak = value
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - value) / peak
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

// TradeDrawdown is the max drawdown of the equity curve built from trades
func TradeDrawdown(trades []models.Trade) float64 {
	return MaxDrawdown(EquityCurve(trades, DefaultBaselineEquity))
}

// SharpeRatio is mean over standard deviation of per-trade returns, not annualised
func SharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := StdDev(returns)
	if std == 0 {
		return 0
	}
	return Mean(returns) / std
}

// Volatility is the dispersion of per-trade returns
func Volatility(trades []models.Trade) float64 {
	return StdDev(Returns(trades))
}

// CalculateMetrics derives the performance snapshot of a trade history.
// An empty history yields zero metrics and a curve holding only the baseline.
func CalculateMetrics(trades []models.Trade) models.PerformanceMetrics {
	curve := EquityCurve(trades, DefaultBaselineEquity)
	returns := Returns(trades)
	wins := CountWins(trades)

	return models.PerformanceMetrics{
		TotalTrades:   len(trades),
		WinningTrades: wins,
		WinRate:       ratio(wins, len(trades)),
		AverageReturn: Mean(returns),
		MaxDrawdown:   MaxDrawdown(curve),
		SharpeRatio:   sanitize(SharpeRatio(returns)),
		EquityCurve:   curve,
	}
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
