package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/policy"
	"github.com/yourusername/learning-agent/internal/regime"
	"github.com/yourusername/learning-agent/internal/reportcache"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// MockLearningRunRepository mocks the audit repository
type MockLearningRunRepository struct {
	mock.Mock
}

func (m *MockLearningRunRepository) Insert(ctx context.Context, run *models.LearningRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockLearningRunRepository) GetByReportID(ctx context.Context, reportID string) (*models.LearningRun, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningRun), args.Error(1)
}

func (m *MockLearningRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.LearningRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.LearningRun), args.Error(1)
}

func (m *MockLearningRunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockPriceSource mocks the market data client
type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) FetchPrices(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error) {
	args := m.Called(ctx, symbol, timeframe, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PricePoint), args.Error(1)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func trades(n int) []models.Trade {
	out := make([]models.Trade, n)
	for i := range out {
		pnl := 0.01
		if i%3 == 0 {
			pnl = -0.005
		}
		out[i] = models.Trade{
			TradeID:   fmt.Sprintf("t%d", i),
			AssetID:   "BTC",
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Action:    models.ActionBuy,
			PnLPct:    pnl,
		}
	}
	return out
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

func newLearningService(runs *MockLearningRunRepository, mode models.LearningMode) (*LearningService, *reportcache.Store) {
	store := reportcache.NewStore(time.Hour, time.Hour, 100)
	cfg := LearningServiceConfig{
		Engine:      policy.NewEngine(policy.DefaultThresholds(), regime.NewClassifier(regime.DefaultConfig())),
		Store:       store,
		DefaultMode: mode,
		Logger:      quietLogger(),
	}
	if runs != nil {
		cfg.Runs = runs
	}
	return NewLearningService(cfg), store
}

func TestLearnWarmupIsRetainedAndPersisted(t *testing.T) {
	runs := new(MockLearningRunRepository)
	runs.On("Insert", mock.Anything, mock.MatchedBy(func(run *models.LearningRun) bool {
		return run.Mode == models.LearningModeGlobal && run.State == models.LearningStateWarmup && run.TradeCount == 5
	})).Return(nil)

	svc, store := newLearningService(runs, models.LearningModeGlobal)
	resp, err := svc.Learn(context.Background(), models.LearnRequest{
		Symbol:       "BTC-USD",
		TradeHistory: trades(5),
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, models.LearningStateWarmup, resp.State)
	assert.NotEmpty(t, resp.ReportID)
	assert.Equal(t, "BTC-USD", resp.Symbol)

	report, ok := store.Get(resp.ReportID)
	require.True(t, ok)
	assert.Equal(t, reportcache.KindLearning, report.Kind)
	runs.AssertExpectations(t)
}

func TestLearnUsesConfiguredDefaultMode(t *testing.T) {
	svc, _ := newLearningService(nil, models.LearningModeZeroSum)

	resp, err := svc.Learn(context.Background(), models.LearnRequest{TradeHistory: trades(30)})

	require.NoError(t, err)
	assert.Equal(t, models.LearningModeZeroSum, resp.Mode)
}

func TestLearnRejectsInvalidRequests(t *testing.T) {
	unordered := risingBars(3)
	unordered[2].Timestamp = unordered[0].Timestamp

	badTrade := trades(1)
	badTrade[0].Action = "short"

	tests := []struct {
		name    string
		req     models.LearnRequest
		wantErr error
	}{
		{
			name:    "unknown mode",
			req:     models.LearnRequest{Mode: "martingale"},
			wantErr: models.ErrInvalidMode,
		},
		{
			name:    "unordered prices",
			req:     models.LearnRequest{PriceHistory: unordered},
			wantErr: models.ErrUnorderedSeries,
		},
		{
			name:    "unknown trade action",
			req:     models.LearnRequest{TradeHistory: badTrade},
			wantErr: models.ErrInvalidRequest,
		},
		{
			name: "fast window not below slow",
			req: models.LearnRequest{Indicators: &models.IndicatorSettings{
				EMAFast: 20, EMASlow: 10, ADXPeriod: 14, ATRPeriod: 14, RSIPeriod: 14,
			}},
			wantErr: models.ErrInvalidSettings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := new(MockLearningRunRepository)
			svc, store := newLearningService(runs, models.LearningModeGlobal)

			resp, err := svc.Learn(context.Background(), tt.req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.ItemCount())
			runs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestLearnSurvivesAuditFailure(t *testing.T) {
	runs := new(MockLearningRunRepository)
	runs.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc, _ := newLearningService(runs, models.LearningModeGlobal)
	resp, err := svc.Learn(context.Background(), models.LearnRequest{TradeHistory: trades(25)})

	require.NoError(t, err)
	require.NotNil(t, resp)
	runs.AssertNumberOfCalls(t, "Insert", 1)
}

func TestLearnClassifiesSuppliedPrices(t *testing.T) {
	svc, _ := newLearningService(nil, models.LearningModeGlobal)

	resp, err := svc.Learn(context.Background(), models.LearnRequest{
		TradeHistory: trades(25),
		PriceHistory: risingBars(100),
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Regime)
	assert.Equal(t, models.RegimeUptrend, resp.Regime.Regime)
}

func TestReportLookup(t *testing.T) {
	svc, _ := newLearningService(nil, models.LearningModeGlobal)
	resp, err := svc.Learn(context.Background(), models.LearnRequest{})
	require.NoError(t, err)

	report, err := svc.Report(resp.ReportID)
	require.NoError(t, err)
	assert.Equal(t, resp.ReportID, report.Learning.ReportID)

	_, err = svc.Report("missing")
	assert.ErrorIs(t, err, models.ErrReportNotFound)
}

func newClassifyService(source *MockPriceSource) (*ClassifyService, *reportcache.Store) {
	store := reportcache.NewStore(time.Hour, time.Hour, 100)
	cfg := ClassifyServiceConfig{
		Classifier: regime.NewClassifier(regime.DefaultConfig()),
		Store:      store,
		FetchLimit: 100,
		Logger:     quietLogger(),
	}
	if source != nil {
		cfg.Source = source
	}
	return NewClassifyService(cfg), store
}

func TestClassifyWithSuppliedBars(t *testing.T) {
	svc, store := newClassifyService(nil)

	resp, err := svc.Classify(context.Background(), models.ClassifyRequest{
		Symbol:       "ETH-USD",
		Timeframe:    "1h",
		PriceHistory: risingBars(100),
	})

	require.NoError(t, err)
	assert.Equal(t, models.ClassificationReady, resp.State)
	assert.Equal(t, models.RegimeUptrend, resp.Regime)
	assert.Equal(t, "ETH-USD", resp.Symbol)
	assert.Equal(t, "1h", resp.Timeframe)

	report, ok := store.Get(resp.ReportID)
	require.True(t, ok)
	assert.Equal(t, reportcache.KindRegime, report.Kind)
}

func TestClassifyShortSeriesIsAStateNotAnError(t *testing.T) {
	svc, _ := newClassifyService(nil)

	resp, err := svc.Classify(context.Background(), models.ClassifyRequest{PriceHistory: risingBars(10)})

	require.NoError(t, err)
	assert.Equal(t, models.ClassificationInsufficientData, resp.State)
	assert.Empty(t, resp.Regime)
}

func TestClassifyFetchesMissingBars(t *testing.T) {
	source := new(MockPriceSource)
	source.On("FetchPrices", mock.Anything, "BTC-USD", "4h", 100).Return(risingBars(100), nil)

	svc, _ := newClassifyService(source)
	resp, err := svc.Classify(context.Background(), models.ClassifyRequest{Symbol: "BTC-USD", Timeframe: "4h"})

	require.NoError(t, err)
	assert.Equal(t, models.RegimeUptrend, resp.Regime)
	source.AssertExpectations(t)
}

func TestClassifySymbol(t *testing.T) {
	t.Run("no source configured", func(t *testing.T) {
		svc, _ := newClassifyService(nil)
		_, err := svc.ClassifySymbol(context.Background(), "BTC-USD", "1h", 0)
		assert.ErrorIs(t, err, models.ErrPriceSourceMissing)
	})

	t.Run("symbol required", func(t *testing.T) {
		svc, _ := newClassifyService(new(MockPriceSource))
		_, err := svc.ClassifySymbol(context.Background(), "", "1h", 0)
		assert.ErrorIs(t, err, models.ErrSymbolRequired)
	})

	t.Run("limit raised to readiness minimum", func(t *testing.T) {
		source := new(MockPriceSource)
		source.On("FetchPrices", mock.Anything, "SOL-USD", "1d", 70).Return([]models.PricePoint{}, nil)

		svc, _ := newClassifyService(source)
		_, err := svc.ClassifySymbol(context.Background(), "SOL-USD", "1d", 30)

		assert.ErrorIs(t, err, models.ErrEmptyPriceSeries)
		source.AssertExpectations(t)
	})

	t.Run("fetch failure", func(t *testing.T) {
		source := new(MockPriceSource)
		source.On("FetchPrices", mock.Anything, "BTC-USD", "1h", 100).Return(nil, errors.New("timeout"))

		svc, _ := newClassifyService(source)
		_, err := svc.ClassifySymbol(context.Background(), "BTC-USD", "1h", 0)

		assert.EqualError(t, err, "fetch price history for BTC-USD: timeout")
	})
}

func TestValidateSeries(t *testing.T) {
	untimed := []models.PricePoint{{High: 2, Low: 1, Close: 1.5}, {High: 3, Low: 2, Close: 2.5}}
	assert.NoError(t, validateSeries("price_history", untimed))

	inverted := risingBars(2)
	inverted[1].High, inverted[1].Low = inverted[1].Low, inverted[1].High
	assert.ErrorIs(t, validateSeries("price_history", inverted), models.ErrInvalidRequest)

	assert.NoError(t, validateSeries("price_history", nil))
}
