// Package logger provides regime-classification logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// RegimeLogger provides dedicated logging for regime classification.
type RegimeLogger struct {
	*logrus.Entry
}

// NewRegimeLogger creates a new regime logger.
func NewRegimeLogger(baseLogger *logrus.Logger) *RegimeLogger {
	return &RegimeLogger{
		Entry: baseLogger.WithField("component", "regime"),
	}
}

// LogClassification logs a classification outcome.
func (rl *RegimeLogger) LogClassification(reportID, symbol, timeframe, state, regime string, confidence float64, bars int, durationMs float64) {
	rl.WithFields(logrus.Fields{
		"report_id":   reportID,
		"symbol":      symbol,
		"timeframe":   timeframe,
		"state":       state,
		"regime":      regime,
		"confidence":  confidence,
		"bars":        bars,
		"duration_ms": durationMs,
	}).Info("Regime classification completed")
}

// LogVolatilityOverride logs a volatile-transition short circuit and what triggered it.
func (rl *RegimeLogger) LogVolatilityOverride(symbol string, triggers []string) {
	rl.WithFields(logrus.Fields{
		"symbol":   symbol,
		"triggers": triggers,
	}).Warn("Volatile transition detected")
}

// LogPriceFetch logs bars fetched from the market data source.
func (rl *RegimeLogger) LogPriceFetch(symbol, timeframe string, bars int, durationMs float64) {
	rl.WithFields(logrus.Fields{
		"symbol":      symbol,
		"timeframe":   timeframe,
		"bars":        bars,
		"duration_ms": durationMs,
	}).Info("Price history fetched")
}
