package policy

import "github.com/shopspring/decimal"

// deltaPlaces is the precision of every proposed delta
const deltaPlaces = 6

// roundDelta rounds a delta half-away-from-zero to deltaPlaces decimals
func roundDelta(v float64) float64 {
	return decimal.NewFromFloat(v).Round(deltaPlaces).InexactFloat64()
}

// boundedStep returns min(step, limit) in decimal arithmetic, never negative
func boundedStep(step, limit float64) decimal.Decimal {
	d := decimal.Min(decimal.NewFromFloat(step), decimal.NewFromFloat(limit))
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(deltaPlaces)
}

// headroom is the distance from w to the upper weight bound of 1
func headroom(w float64) float64 {
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(w)).InexactFloat64()
}
