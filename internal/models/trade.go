package models

import "time"

// Action is the directional decision recorded for a trade or a vote
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// IsDirectional reports whether the action is buy or sell
func (a Action) IsDirectional() bool {
	return a == ActionBuy || a == ActionSell
}

// AgentVote is one signal source's recommendation for a trade
type AgentVote struct {
	Action     Action  `json:"action" validate:"required,oneof=buy sell hold"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// Trade represents an executed or simulated position outcome
type Trade struct {
	TradeID      string               `json:"trade_id"`
	AssetID      string               `json:"asset_id"`
	Timestamp    time.Time            `json:"timestamp"`
	Action       Action               `json:"action" validate:"required,oneof=buy sell hold"`
	EntryPrice   float64              `json:"entry_price,omitempty" validate:"gte=0"`
	ExitPrice    float64              `json:"exit_price,omitempty" validate:"gte=0"`
	PnLPct       float64              `json:"pnl_pct"`
	HoldingDays  float64              `json:"holding_days,omitempty" validate:"gte=0"`
	MarketRegime string               `json:"market_regime,omitempty"`
	Executed     *bool                `json:"executed,omitempty"`
	AgentVotes   map[string]AgentVote `json:"agent_votes,omitempty" validate:"dive"`
}

// IsProfitable reports whether the trade closed with a positive return
func (t Trade) IsProfitable() bool {
	return t.PnLPct > 0
}

// IsExecuted defaults to true when the caller did not say otherwise
func (t Trade) IsExecuted() bool {
	return t.Executed == nil || *t.Executed
}

// ExecutedTrades filters out trades explicitly marked as not executed
func ExecutedTrades(trades []Trade) []Trade {
	out := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsExecuted() {
			out = append(out, t)
		}
	}
	return out
}
