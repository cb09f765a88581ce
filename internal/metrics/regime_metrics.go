package metrics

import "github.com/prometheus/client_golang/prometheus"

// Regime classification metrics
var (
	RegimeClassificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "regime_classifications_total",
		Help:      "Total number of regime classifications by state and label",
	}, []string{"state", "regime"})

	ClassificationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classification_duration_seconds",
		Help:      "Duration of regime classification in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	RegimeConfidence = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "regime_confidence",
		Help:      "Confidence of regime classifications by label",
		Buckets:   []float64{0.2, 0.3, 0.5, 0.67, 0.75, 0.9, 1.0},
	}, []string{"regime"})
)

// RecordClassification records a regime classification. Regime is "none" when data was insufficient.
func RecordClassification(state, regime string, confidence, durationSeconds float64) {
	if regime == "" {
		regime = "none"
	}
	RegimeClassificationsTotal.WithLabelValues(state, regime).Inc()
	ClassificationDuration.Observe(durationSeconds)
	RegimeConfidence.WithLabelValues(regime).Observe(confidence)
}
