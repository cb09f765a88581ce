package policy

import (
	"math"

	"github.com/yourusername/learning-agent/internal/analytics"
	"github.com/yourusername/learning-agent/internal/models"
)

// Confidence blends sample adequacy, return consistency and a stepped drawdown score
// into a single value in [0,1]
func (t Thresholds) Confidence(trades []models.Trade, maxDrawdown float64) float64 {
	sample := 0.0
	if t.ConfidenceReferenceTrades > 0 {
		sample = math.Min(float64(len(trades))/float64(t.ConfidenceReferenceTrades), 1)
	}
	consistency := models.Clamp01(1 - analytics.StdDev(analytics.Returns(trades)))

	score := t.SampleWeight*sample + t.ConsistencyWeight*consistency + t.DrawdownWeight*t.drawdownScore(maxDrawdown)
	if math.IsNaN(score) {
		return 0
	}
	return models.Clamp01(score)
}

func (t Thresholds) drawdownScore(dd float64) float64 {
	switch {
	case dd < t.DrawdownMild:
		return 1
	case dd < t.DrawdownSevere:
		return 0.5
	default:
		return 0
	}
}
