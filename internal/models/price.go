package models

import "time"

// PricePoint is one OHLCV bar
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume" validate:"gte=0"`
}

// PriceSeries is a sequence of bars ordered by ascending timestamp
type PriceSeries []PricePoint

// Closes returns the close column
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Highs returns the high column
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.High
	}
	return out
}

// Lows returns the low column
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Low
	}
	return out
}

// IndicatorSettings controls indicator window lengths for one classification
type IndicatorSettings struct {
	EMAFast   int `json:"ema_fast" mapstructure:"ema_fast" validate:"required,gt=0"`
	EMASlow   int `json:"ema_slow" mapstructure:"ema_slow" validate:"required,gt=0,gtfield=EMAFast"`
	ADXPeriod int `json:"adx_period" mapstructure:"adx_period" validate:"required,gt=0"`
	ATRPeriod int `json:"atr_period" mapstructure:"atr_period" validate:"required,gt=0"`
	RSIPeriod int `json:"rsi_period" mapstructure:"rsi_period" validate:"required,gt=0"`
	SMAPeriod int `json:"sma_period,omitempty" mapstructure:"sma_period" validate:"omitempty,gt=0"`
}

// DefaultIndicatorSettings returns the customary 10/20 EMA, 14-period oscillator setup
func DefaultIndicatorSettings() IndicatorSettings {
	return IndicatorSettings{
		EMAFast:   10,
		EMASlow:   20,
		ADXPeriod: 14,
		ATRPeriod: 14,
		RSIPeriod: 14,
		SMAPeriod: 50,
	}
}
