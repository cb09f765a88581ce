package models

// Regime is a qualitative label for current market behaviour
type Regime string

const (
	RegimeUptrend            Regime = "uptrend"
	RegimeDowntrend          Regime = "downtrend"
	RegimeRanging            Regime = "ranging"
	RegimeVolatileTransition Regime = "volatile_transition"
	RegimeUndefined          Regime = "undefined"
)

// Classification states
const (
	ClassificationReady            = "ready"
	ClassificationInsufficientData = "insufficient_data"
)

// LearnedPatterns summarises the character of a classified regime
type LearnedPatterns struct {
	TrendCharacter    string   `json:"trend_character,omitempty"`
	FalseBreakoutRisk string   `json:"false_breakout_risk,omitempty"`
	BestStrategyFit   []string `json:"best_strategy_fit"`
}

// IndicatorSnapshot carries the latest indicator readings behind a classification
type IndicatorSnapshot struct {
	EMAFast  float64 `json:"ema_fast"`
	EMASlow  float64 `json:"ema_slow"`
	EMASlope float64 `json:"ema_slope"`
	ADX      float64 `json:"adx"`
	RSI      float64 `json:"rsi"`
	ATR      float64 `json:"atr"`
	ATRAvg   float64 `json:"atr_avg"`
	SMA      float64 `json:"sma"`
	Close    float64 `json:"close"`
}

// RegimeClassification is the classifier output. Regime is empty when State is insufficient_data.
type RegimeClassification struct {
	Symbol          string             `json:"symbol,omitempty"`
	Timeframe       string             `json:"timeframe,omitempty"`
	State           string             `json:"learning_state"`
	Regime          Regime             `json:"market_regime,omitempty"`
	Confidence      float64            `json:"confidence"`
	Explanation     []string           `json:"explanation"`
	LearnedPatterns LearnedPatterns    `json:"learned_patterns"`
	RiskNotes       []string           `json:"risk_notes"`
	Reasoning       []string           `json:"reasoning,omitempty"`
	Indicators      *IndicatorSnapshot `json:"indicators,omitempty"`
}

// IsVolatile reports whether the classification is a volatile transition
func (c *RegimeClassification) IsVolatile() bool {
	return c != nil && c.Regime == RegimeVolatileTransition
}

// ClassifyRequest is the input of a regime classification
type ClassifyRequest struct {
	Symbol       string            `json:"symbol"`
	Timeframe    string            `json:"timeframe"`
	PriceHistory []PricePoint      `json:"price_history" validate:"dive"`
	Indicators   IndicatorSettings `json:"indicators"`
}
