package metrics

import "github.com/prometheus/client_golang/prometheus"

// Infrastructure counters
var (
	ReportCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_cache_requests_total",
		Help:      "Report cache lookups by result",
	}, []string{"result"})
	MarketDataFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_data_fetches_total",
		Help:      "Price history fetches by outcome",
	}, []string{"outcome"})
	AuditWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_writes_total",
		Help:      "Learning-run audit writes by outcome",
	}, []string{"outcome"})
	SchedulerJobRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_job_runs_total",
		Help:      "Scheduled job executions by job and outcome",
	}, []string{"job", "outcome"})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "status"})
)

// Infrastructure gauges and histograms
var (
	ReportCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "report_cache_items",
		Help:      "Number of reports currently retained",
	})
	MarketDataFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "market_data_fetch_duration_seconds",
		Help:      "Duration of price history fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// RecordCacheHit records a report cache hit.
func RecordCacheHit() {
	ReportCacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a report cache miss.
func RecordCacheMiss() {
	ReportCacheRequestsTotal.WithLabelValues("miss").Inc()
}

// UpdateReportCacheSize updates the retained report gauge.
func UpdateReportCacheSize(count int) {
	ReportCacheSize.Set(float64(count))
}

// RecordMarketDataFetch records a price history fetch.
func RecordMarketDataFetch(outcome string, durationSeconds float64) {
	MarketDataFetchesTotal.WithLabelValues(outcome).Inc()
	MarketDataFetchDuration.Observe(durationSeconds)
}

// RecordAuditWrite records a learning-run persistence attempt.
func RecordAuditWrite(outcome string) {
	AuditWritesTotal.WithLabelValues(outcome).Inc()
}

// RecordSchedulerJob records a cron job execution.
func RecordSchedulerJob(job, outcome string) {
	SchedulerJobRunsTotal.WithLabelValues(job, outcome).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route, status string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}
