// Package logger provides learning-cycle logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// LearningLogger provides dedicated logging for learning cycles.
type LearningLogger struct {
	*logrus.Entry
}

// NewLearningLogger creates a new learning logger.
func NewLearningLogger(baseLogger *logrus.Logger) *LearningLogger {
	return &LearningLogger{
		Entry: baseLogger.WithField("component", "learning"),
	}
}

// LogLearningCycle logs the outcome of one learning call.
func (ll *LearningLogger) LogLearningCycle(reportID, mode, state string, trades int, confidence float64, deltas int, durationMs float64) {
	ll.WithFields(logrus.Fields{
		"report_id":   reportID,
		"mode":        mode,
		"state":       state,
		"trades":      trades,
		"confidence":  confidence,
		"delta_count": deltas,
		"duration_ms": durationMs,
	}).Info("Learning cycle completed")
}

// LogDecision logs one reasoning step at debug level.
func (ll *LearningLogger) LogDecision(reportID string, step int, reasoning string) {
	ll.WithFields(logrus.Fields{
		"report_id": reportID,
		"step":      step,
		"reasoning": reasoning,
	}).Debug("Learning decision")
}

// LogAssetWarmup logs an asset that is still accumulating trades.
func (ll *LearningLogger) LogAssetWarmup(reportID, assetID string, trades, required int) {
	ll.WithFields(logrus.Fields{
		"report_id": reportID,
		"asset_id":  assetID,
		"trades":    trades,
		"required":  required,
	}).Debug("Asset in warmup")
}

// LogLearningError logs a rejected learning request.
func (ll *LearningLogger) LogLearningError(mode string, err error) {
	ll.WithFields(logrus.Fields{
		"mode":  mode,
		"error": err.Error(),
	}).Error("Learning request rejected")
}
