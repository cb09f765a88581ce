package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learning-agent/internal/config"
	"github.com/yourusername/learning-agent/internal/metrics"
	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/policy"
	"github.com/yourusername/learning-agent/internal/regime"
	"github.com/yourusername/learning-agent/internal/reportcache"
	"github.com/yourusername/learning-agent/internal/service"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Address:         ":0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
		MaxBodyBytes:    1 << 20,
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	log := quietLogger()
	store := reportcache.NewStore(time.Hour, time.Hour, 100)
	classifier := regime.NewClassifier(regime.DefaultConfig())

	learner := service.NewLearningService(service.LearningServiceConfig{
		Engine: policy.NewEngine(policy.DefaultThresholds(), classifier),
		Store:  store,
		Logger: log,
	})
	classify := service.NewClassifyService(service.ClassifyServiceConfig{
		Classifier: classifier,
		Store:      store,
		Logger:     log,
	})

	srv := httptest.NewServer(NewServer(cfg, learner, classify, "/metrics", log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func risingBars(n int) []models.PricePoint {
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

func TestLearnEndpointWarmup(t *testing.T) {
	srv := newTestServer(t, testServerConfig())

	trades := make([]models.Trade, 5)
	for i := range trades {
		trades[i] = models.Trade{
			TradeID:   fmt.Sprintf("t%d", i),
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Action:    models.ActionBuy,
			PnLPct:    0.01,
		}
	}

	resp := postJSON(t, srv.URL+"/v1/learn", models.LearnRequest{TradeHistory: trades})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "warmup", body["learning_state"])
	assert.Equal(t, "global", body["mode"])
	assert.NotEmpty(t, body["report_id"])
	assert.NotEmpty(t, body["reasoning"])
}

func TestLearnEndpointErrors(t *testing.T) {
	srv := newTestServer(t, testServerConfig())

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"trade_history": [`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_json",
		},
		{
			name:       "unknown mode",
			body:       `{"learning_mode": "martingale"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_mode",
		},
		{
			name: "unordered prices",
			body: `{"price_history": [
				{"timestamp": "2024-01-02T00:00:00Z", "open": 1, "high": 2, "low": 1, "close": 1},
				{"timestamp": "2024-01-01T00:00:00Z", "open": 1, "high": 2, "low": 1, "close": 1}
			]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "unordered_series",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/learn", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var envelope ErrorResponse
			decodeBody(t, resp, &envelope)
			assert.Equal(t, tt.wantCode, envelope.Error)
			assert.NotEmpty(t, envelope.Message)
		})
	}
}

func TestClassifyEndpointAndReportLookup(t *testing.T) {
	srv := newTestServer(t, testServerConfig())

	resp := postJSON(t, srv.URL+"/v1/regime", models.ClassifyRequest{
		Symbol:       "BTC-USD",
		Timeframe:    "1h",
		PriceHistory: risingBars(100),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var classified models.ClassifyResponse
	decodeBody(t, resp, &classified)
	assert.Equal(t, models.RegimeUptrend, classified.Regime)
	assert.Equal(t, "BTC-USD", classified.Symbol)

	reportResp, err := http.Get(srv.URL + "/v1/reports/" + classified.ReportID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, reportResp.StatusCode)

	var report reportcache.Report
	decodeBody(t, reportResp, &report)
	assert.Equal(t, reportcache.KindRegime, report.Kind)
	require.NotNil(t, report.Regime)
	assert.Equal(t, models.RegimeUptrend, report.Regime.Regime)
}

func TestReportNotFound(t *testing.T) {
	srv := newTestServer(t, testServerConfig())

	resp, err := http.Get(srv.URL + "/v1/reports/unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var envelope ErrorResponse
	decodeBody(t, resp, &envelope)
	assert.Equal(t, "not_found", envelope.Error)
}

func TestClassifySymbolWithoutSource(t *testing.T) {
	srv := newTestServer(t, testServerConfig())

	resp, err := http.Get(srv.URL + "/v1/regime/btc-usd?timeframe=1h")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope ErrorResponse
	decodeBody(t, resp, &envelope)
	assert.Equal(t, "price_source_unavailable", envelope.Error)

	resp, err = http.Get(srv.URL + "/v1/regime/btc-usd?limit=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimitPerSecond = 0.001
	cfg.RateLimitBurst = 1
	srv := newTestServer(t, cfg)

	first, err := http.Get(srv.URL + "/v1/reports/a")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusNotFound, first.StatusCode)

	second, err := http.Get(srv.URL + "/v1/reports/b")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	var envelope ErrorResponse
	decodeBody(t, second, &envelope)
	assert.Equal(t, "rate_limited", envelope.Error)
}

func TestBodyTooLarge(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxBodyBytes = 16
	srv := newTestServer(t, cfg)

	resp, err := http.Post(srv.URL+"/v1/learn", "application/json",
		strings.NewReader(`{"symbol": "a-very-long-symbol-name"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	resp.Body.Close()
}

func requestCount(t *testing.T, route, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.HTTPRequestsTotal.WithLabelValues(route, status).Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetricsAndUnknownRoutes(t *testing.T) {
	srv := newTestServer(t, testServerConfig())
	notFound := requestCount(t, unmatchedRoute, "404")
	notAllowed := requestCount(t, unmatchedRoute, "405")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v2/nothing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/random/abc123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/learn")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, notFound+2, requestCount(t, unmatchedRoute, "404"))
	assert.Equal(t, notAllowed+1, requestCount(t, unmatchedRoute, "405"))
	assert.Zero(t, requestCount(t, "/v2/nothing", "404"))
	assert.Zero(t, requestCount(t, "/random/abc123", "404"))
}
