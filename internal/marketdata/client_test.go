package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learning-agent/internal/config"
	"github.com/yourusername/learning-agent/internal/models"
)

func testHTTPConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	cfg.RateLimit = 0
	cfg.Timeout = 2 * time.Second
	return cfg
}

func newTestClient(t *testing.T, handler http.Handler, httpCfg HTTPClientConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return newClient(NewRateLimitedHTTPClient(httpCfg, nil), config.MarketDataConfig{
		Enabled: true,
		BaseURL: srv.URL + "/",
		APIKey:  "secret",
	})
}

func writeCandles(w http.ResponseWriter, candles []candle) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(candlesResponse{Symbol: "BTC-USD", Timeframe: "1h", Candles: candles})
}

func TestFetchPricesSortsAndMaps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var gotQuery, gotKey string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-API-Key")
		assert.Equal(t, "/v1/candles", r.URL.Path)
		writeCandles(w, []candle{
			{Timestamp: base.Add(time.Hour), Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 10},
			{Timestamp: base, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 5},
		})
	}), testHTTPConfig())

	points, err := client.FetchPrices(context.Background(), "BTC-USD", "1h", 0)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, base, points[0].Timestamp)
	assert.Equal(t, 2.5, points[1].Close)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "limit=200&symbol=BTC-USD&timeframe=1h", gotQuery)
}

func TestFetchPricesRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeCandles(w, []candle{{Timestamp: time.Now(), Close: 1}})
	}), testHTTPConfig())

	points, err := client.FetchPrices(context.Background(), "ETH-USD", "4h", 10)
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchPricesDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unknown symbol", http.StatusNotFound)
	}), testHTTPConfig())

	_, err := client.FetchPrices(context.Background(), "NOPE", "1h", 10)
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, ErrCodeNotFound, fetchErr.Code)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchPricesRequiresSymbol(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler(), testHTTPConfig())

	_, err := client.FetchPrices(context.Background(), "", "1h", 10)
	assert.ErrorIs(t, err, models.ErrSymbolRequired)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	httpCfg := testHTTPConfig()
	httpCfg.MaxRetries = 0
	httpCfg.CircuitBreakerMax = 2
	httpCfg.CircuitCooldown = time.Hour

	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}), httpCfg)

	for i := 0; i < 2; i++ {
		_, err := client.FetchPrices(context.Background(), "BTC-USD", "1h", 10)
		require.Error(t, err)
	}

	_, err := client.FetchPrices(context.Background(), "BTC-USD", "1h", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, ErrCodeRateLimitExceeded, codeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, ErrCodeAuthentication, codeForStatus(http.StatusForbidden))
	assert.Equal(t, ErrCodeUpstream, codeForStatus(http.StatusTeapot))
}
