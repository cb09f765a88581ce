// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPolicyDelta logs one proposed policy change.
func (al *AuditLogger) LogPolicyDelta(reportID, section, field string, delta interface{}) {
	al.WithFields(logrus.Fields{
		"report_id": reportID,
		"section":   section,
		"field":     field,
		"delta":     delta,
	}).Info("Policy change proposed")
}

// LogGuardrail logs a guardrail flag raised by a learning cycle.
func (al *AuditLogger) LogGuardrail(reportID, flag string) {
	al.WithFields(logrus.Fields{
		"report_id": reportID,
		"flag":      flag,
	}).Warn("Guardrail raised")
}

// LogRunPersisted logs a learning run written to the audit store.
func (al *AuditLogger) LogRunPersisted(reportID string, createdAt time.Time) {
	al.WithFields(logrus.Fields{
		"report_id":  reportID,
		"created_at": createdAt.Unix(),
	}).Debug("Learning run persisted")
}

// LogRetentionPrune logs removal of expired audit rows.
func (al *AuditLogger) LogRetentionPrune(removed int64, cutoff time.Time) {
	al.WithFields(logrus.Fields{
		"removed": removed,
		"cutoff":  cutoff.Unix(),
	}).Info("Audit retention applied")
}
