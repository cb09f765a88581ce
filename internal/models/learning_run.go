package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LearningRun is the persisted audit record of one learning call
type LearningRun struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ReportID   string          `db:"report_id" json:"report_id"`
	Symbol     string          `db:"symbol" json:"symbol,omitempty"`
	Mode       LearningMode    `db:"mode" json:"mode"`
	State      LearningState   `db:"state" json:"learning_state"`
	Confidence float64         `db:"confidence" json:"confidence"`
	TradeCount int             `db:"trade_count" json:"trade_count"`
	Regime     string          `db:"regime" json:"market_regime,omitempty"`
	Deltas     json.RawMessage `db:"deltas" json:"policy_deltas"`
	Reasoning  []string        `db:"reasoning" json:"reasoning"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// NewLearningRun builds the audit record for a learning response
func NewLearningRun(resp *LearnResponse, tradeCount int) (*LearningRun, error) {
	deltas, err := json.Marshal(resp.Deltas)
	if err != nil {
		return nil, err
	}

	run := &LearningRun{
		ID:         uuid.New(),
		ReportID:   resp.ReportID,
		Symbol:     resp.Symbol,
		Mode:       resp.Mode,
		State:      resp.State,
		Confidence: resp.Confidence,
		TradeCount: tradeCount,
		Deltas:     deltas,
		Reasoning:  resp.Reasoning,
		CreatedAt:  resp.GeneratedAt,
	}
	if resp.Regime != nil {
		run.Regime = string(resp.Regime.Regime)
	}
	if run.Reasoning == nil {
		run.Reasoning = []string{}
	}
	return run, nil
}
