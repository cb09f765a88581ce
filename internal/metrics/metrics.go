// Package metrics provides centralized Prometheus metrics registry for the learning agent.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/learning-agent/internal/models"
)

const namespace = "learning_agent"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	LearningRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "learning_runs_total",
		Help:      "Total number of learning cycles by mode and resulting state",
	}, []string{"mode", "state"})
	PolicyAdjustmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_adjustments_total",
		Help:      "Total number of proposed policy changes by kind",
	}, []string{"kind"})
	GuardrailsRaisedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guardrails_raised_total",
		Help:      "Total number of guardrail flags raised",
	}, []string{"flag"})
	LearningErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "learning_errors_total",
		Help:      "Total number of rejected learning or classification requests",
	}, []string{"operation", "reason"})
)

// Gauge metrics
var (
	LastLearningConfidence = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_learning_confidence",
		Help:      "Confidence of the most recent learning cycle per mode",
	}, []string{"mode"})
)

// Histogram metrics
var (
	LearningDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "learning_duration_seconds",
		Help:      "Duration of learning cycles in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"mode"})
	LearningConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "learning_confidence",
		Help:      "Distribution of learning confidence scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Learning metrics
		registry.MustRegister(LearningRunsTotal)
		registry.MustRegister(PolicyAdjustmentsTotal)
		registry.MustRegister(GuardrailsRaisedTotal)
		registry.MustRegister(LearningErrorsTotal)
		registry.MustRegister(LastLearningConfidence)
		registry.MustRegister(LearningDuration)
		registry.MustRegister(LearningConfidence)

		// Regime metrics
		registry.MustRegister(RegimeClassificationsTotal)
		registry.MustRegister(ClassificationDuration)
		registry.MustRegister(RegimeConfidence)

		// Infrastructure metrics
		registry.MustRegister(ReportCacheRequestsTotal)
		registry.MustRegister(ReportCacheSize)
		registry.MustRegister(MarketDataFetchesTotal)
		registry.MustRegister(MarketDataFetchDuration)
		registry.MustRegister(AuditWritesTotal)
		registry.MustRegister(SchedulerJobRunsTotal)
		registry.MustRegister(HTTPRequestsTotal)
		registry.MustRegister(HTTPRequestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordLearningRun records one completed learning cycle.
func RecordLearningRun(mode, state string, confidence, durationSeconds float64) {
	LearningRunsTotal.WithLabelValues(mode, state).Inc()
	LearningDuration.WithLabelValues(mode).Observe(durationSeconds)
	LearningConfidence.Observe(confidence)
	LastLearningConfidence.WithLabelValues(mode).Set(confidence)
}

// RecordPolicyAdjustments adds count proposed changes of a kind.
func RecordPolicyAdjustments(kind string, count int) {
	if count <= 0 {
		return
	}
	PolicyAdjustmentsTotal.WithLabelValues(kind).Add(float64(count))
}

// RecordGuardrail records a raised guardrail flag under its kind; per-agent suffixes
// never become label values.
func RecordGuardrail(flag string) {
	GuardrailsRaisedTotal.WithLabelValues(models.GuardrailKind(flag)).Inc()
}

// RecordLearningError records a rejected request.
func RecordLearningError(operation, reason string) {
	LearningErrorsTotal.WithLabelValues(operation, reason).Inc()
}
