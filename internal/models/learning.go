package models

import "time"

// LearningState describes how much the engine could conclude from the input
type LearningState string

const (
	LearningStateWarmup           LearningState = "warmup"
	LearningStateSuccess          LearningState = "success"
	LearningStateInsufficientData LearningState = "insufficient_data"
	LearningStateActive           LearningState = "active"
)

// LearningMode selects the adjustment strategy
type LearningMode string

const (
	LearningModeGlobal      LearningMode = "global"
	LearningModeZeroSum     LearningMode = "zero_sum"
	LearningModeRegimeAware LearningMode = "regime_aware"
	LearningModeAsset       LearningMode = "asset"
)

// Valid reports whether m names a known mode
func (m LearningMode) Valid() bool {
	switch m {
	case LearningModeGlobal, LearningModeZeroSum, LearningModeRegimeAware, LearningModeAsset:
		return true
	}
	return false
}

// PerformanceMetrics is a read-only snapshot derived from a trade history
type PerformanceMetrics struct {
	TotalTrades   int       `json:"total_trades"`
	WinningTrades int       `json:"winning_trades"`
	WinRate       float64   `json:"win_rate"`
	AverageReturn float64   `json:"average_return"`
	MaxDrawdown   float64   `json:"max_drawdown"`
	SharpeRatio   float64   `json:"sharpe_ratio"`
	EquityCurve   []float64 `json:"equity_curve"`
}

// PortfolioMetrics are caller-supplied aggregates that override derived ones for risk sizing
type PortfolioMetrics struct {
	WinRate       float64 `json:"win_rate" validate:"gte=0,lte=1"`
	AverageReturn float64 `json:"average_return"`
	MaxDrawdown   float64 `json:"max_drawdown" validate:"gte=0"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
}

// AssetAssessment is the per-asset view produced in asset mode
type AssetAssessment struct {
	AssetID              string  `json:"asset_id"`
	Trades               int     `json:"trades"`
	Warmup               bool    `json:"warmup"`
	WinRate              float64 `json:"win_rate"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	Volatility           float64 `json:"volatility"`
	Score                float64 `json:"score"`
	Bias                 float64 `json:"bias"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	RecentDrawdown       float64 `json:"recent_drawdown"`
}

// LearningResult is the engine output for one learning call
type LearningResult struct {
	State      LearningState         `json:"learning_state"`
	Mode       LearningMode          `json:"mode"`
	Confidence float64               `json:"confidence"`
	Deltas     PolicyDelta           `json:"policy_deltas"`
	Reasoning  []string              `json:"reasoning"`
	Metrics    *PerformanceMetrics   `json:"metrics,omitempty"`
	Regime     *RegimeClassification `json:"regime,omitempty"`
	Assets     []AssetAssessment     `json:"assets,omitempty"`
}

// LearnRequest is the input of one learning call
type LearnRequest struct {
	Symbol            string                  `json:"symbol"`
	Mode              LearningMode            `json:"learning_mode"`
	WindowSize        int                     `json:"window_size" validate:"gte=0"`
	TradeHistory      []Trade                 `json:"trade_history" validate:"dive"`
	PriceHistory      []PricePoint            `json:"price_history,omitempty" validate:"dive"`
	AssetPriceHistory map[string][]PricePoint `json:"asset_price_history,omitempty"`
	Indicators        *IndicatorSettings      `json:"indicators,omitempty"`
	PortfolioMetrics  *PortfolioMetrics       `json:"portfolio_metrics,omitempty"`
	CurrentPolicy     PolicyConfig            `json:"current_policy"`
}

// LearnResponse wraps a LearningResult for the request boundary
type LearnResponse struct {
	Status      string    `json:"status"`
	ReportID    string    `json:"report_id"`
	Symbol      string    `json:"symbol,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	LearningResult
}

// ClassifyResponse wraps a RegimeClassification for the request boundary
type ClassifyResponse struct {
	Status      string    `json:"status"`
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`
	RegimeClassification
}
