package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/learning-agent/internal/config"
	"github.com/yourusername/learning-agent/internal/metrics"
	"github.com/yourusername/learning-agent/internal/models"
)

// PriceSource fetches ordered OHLCV bars for a symbol and timeframe
type PriceSource interface {
	FetchPrices(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error)
}

// Error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeAuthentication    = "authentication_failed"
	ErrCodeNotFound          = "not_found"
	ErrCodeUpstream          = "upstream_error"
	ErrCodeDecode            = "decode_error"
)

// FetchError reports a failed price fetch
type FetchError struct {
	Code       string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return "market data: " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return "market data: " + e.Code + ": " + e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type candlesResponse struct {
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Candles   []candle `json:"candles"`
}

// Client fetches candles from GET {base_url}/v1/candles
type Client struct {
	http         *RateLimitedHTTPClient
	baseURL      string
	apiKey       string
	defaultLimit int
}

// NewClient builds a client from the market data configuration
func NewClient(cfg config.MarketDataConfig, logger *logrus.Logger) *Client {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	httpCfg.MaxRetries = cfg.RetryAttempts
	if cfg.RequestsPerSecond > 0 {
		httpCfg.RateLimit = cfg.RequestsPerSecond
	}
	if cfg.Burst > 0 {
		httpCfg.Burst = cfg.Burst
	}

	return newClient(NewRateLimitedHTTPClient(httpCfg, logger), cfg)
}

func newClient(httpClient *RateLimitedHTTPClient, cfg config.MarketDataConfig) *Client {
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 200
	}
	return &Client{
		http:         httpClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		defaultLimit: limit,
	}
}

// FetchPrices returns bars sorted by ascending timestamp
func (c *Client) FetchPrices(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error) {
	if symbol == "" {
		return nil, models.ErrSymbolRequired
	}
	if limit <= 0 {
		limit = c.defaultLimit
	}

	start := time.Now()
	points, err := c.fetch(ctx, symbol, timeframe, limit)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.RecordMarketDataFetch(outcome, time.Since(start).Seconds())
	return points, err
}

func (c *Client) fetch(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	if timeframe != "" {
		query.Set("timeframe", timeframe)
	}
	query.Set("limit", strconv.Itoa(limit))

	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["X-API-Key"] = c.apiKey
	}

	resp, err := c.http.Get(ctx, c.baseURL+"/v1/candles?"+query.Encode(), headers)
	if err != nil {
		return nil, &FetchError{Code: ErrCodeUpstream, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			Code:       codeForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Code: ErrCodeDecode, Message: "invalid candle payload", Err: err}
	}

	points := make([]models.PricePoint, len(payload.Candles))
	for i, cdl := range payload.Candles {
		points[i] = models.PricePoint{
			Timestamp: cdl.Timestamp,
			Open:      cdl.Open,
			High:      cdl.High,
			Low:       cdl.Low,
			Close:     cdl.Close,
			Volume:    cdl.Volume,
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimitExceeded
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeAuthentication
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	default:
		return ErrCodeUpstream
	}
}
