// Package analytics provides stateless trade-performance analytics.
//
// Every function is a pure function of its arguments. Trade slices are expected in
// chronological order; use Chronological to obtain one from arbitrary input.
package analytics

import (
	"sort"

	"github.com/yourusername/learning-agent/internal/models"
)

// Recent returns the last n trades. A non-positive n returns the whole history.
func Recent(trades []models.Trade, n int) []models.Trade {
	if n <= 0 || n >= len(trades) {
		return trades
	}
	return trades[len(trades)-n:]
}

// Chronological returns a copy of trades stably sorted by timestamp.
// Trades sharing a timestamp keep their input order.
func Chronological(trades []models.Trade) []models.Trade {
	out := append([]models.Trade(nil), trades...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Returns extracts pnl_pct in order
func Returns(trades []models.Trade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.PnLPct
	}
	return out
}

// CountWins counts profitable trades
func CountWins(trades []models.Trade) int {
	wins := 0
	for _, t := range trades {
		if t.IsProfitable() {
			wins++
		}
	}
	return wins
}

// WinRate is profitable count over total, zero for an empty slice
func WinRate(trades []models.Trade) float64 {
	return ratio(CountWins(trades), len(trades))
}
