package models

import "strings"

// RiskPolicy holds the sizing parameters of the operating policy
type RiskPolicy struct {
	RiskPerTrade   float64 `json:"risk_per_trade" validate:"gte=0,lte=1"`
	MaxPositionPct float64 `json:"max_position_pct" validate:"gte=0,lte=1"`
	StopLossPct    float64 `json:"stop_loss_pct" validate:"gte=0,lte=1"`
}

// StrategyBiasPolicy holds directional preferences of the operating policy
type StrategyBiasPolicy struct {
	PreferredRegime string `json:"preferred_regime"`
}

// PolicyConfig is the caller's currently active configuration. It is read-only input.
type PolicyConfig struct {
	AgentWeights map[string]float64 `json:"agent_weights" validate:"dive,gte=0,lte=1"`
	Risk         RiskPolicy         `json:"risk"`
	StrategyBias StrategyBiasPolicy `json:"strategy_bias"`
}

// Weight returns the current weight of an agent, zero when unknown
func (p PolicyConfig) Weight(agent string) float64 {
	if p.AgentWeights == nil {
		return 0
	}
	return p.AgentWeights[agent]
}

// Risk field names used as PolicyDelta.Risk keys
const (
	RiskFieldRiskPerTrade   = "risk_per_trade"
	RiskFieldMaxPositionPct = "max_position_pct"
	RiskFieldStopLossPct    = "stop_loss_pct"
)

// Strategy bias keys used as PolicyDelta.StrategyBias keys
const (
	StrategyBiasTrendFollowing = "trend_following"
)

// Guardrail flag keys
const (
	GuardrailOvertrading        = "overtrading"
	GuardrailDrawdownClustering = "drawdown_clustering"
	GuardrailConfirmationBias   = "confirmation_bias"
	GuardrailRecentLosses       = "recent_losses"
)

// GuardrailKind strips the per-agent suffix from a guardrail key, e.g.
// "confirmation_bias:momentum" becomes "confirmation_bias"
func GuardrailKind(flag string) string {
	if i := strings.IndexByte(flag, ':'); i >= 0 {
		return flag[:i]
	}
	return flag
}

// PolicyDelta is a sparse set of proposed changes. Numeric values are deltas, never absolute values.
type PolicyDelta struct {
	AgentWeights    map[string]float64 `json:"agent_weights"`
	Risk            map[string]float64 `json:"risk"`
	StrategyBias    map[string]float64 `json:"strategy_bias"`
	PreferredRegime string             `json:"preferred_regime,omitempty"`
	Guardrails      map[string]bool    `json:"guardrails"`
	AssetBiases     map[string]float64 `json:"asset_biases"`
}

// NewPolicyDelta returns an empty delta with all maps allocated
func NewPolicyDelta() PolicyDelta {
	return PolicyDelta{
		AgentWeights: make(map[string]float64),
		Risk:         make(map[string]float64),
		StrategyBias: make(map[string]float64),
		Guardrails:   make(map[string]bool),
		AssetBiases:  make(map[string]float64),
	}
}

// IsEmpty reports whether the delta proposes no change at all
func (d PolicyDelta) IsEmpty() bool {
	return len(d.AgentWeights) == 0 &&
		len(d.Risk) == 0 &&
		len(d.StrategyBias) == 0 &&
		d.PreferredRegime == "" &&
		len(d.Guardrails) == 0 &&
		len(d.AssetBiases) == 0
}

// Apply returns a copy of cfg with the numeric deltas added and weights clamped to [0,1].
// cfg itself is left untouched.
func (d PolicyDelta) Apply(cfg PolicyConfig) PolicyConfig {
	out := PolicyConfig{
		AgentWeights: make(map[string]float64, len(cfg.AgentWeights)),
		Risk:         cfg.Risk,
		StrategyBias: cfg.StrategyBias,
	}
	for agent, w := range cfg.AgentWeights {
		out.AgentWeights[agent] = w
	}
	for agent, delta := range d.AgentWeights {
		out.AgentWeights[agent] = Clamp01(out.AgentWeights[agent] + delta)
	}
	if delta, ok := d.Risk[RiskFieldRiskPerTrade]; ok {
		out.Risk.RiskPerTrade = Clamp01(out.Risk.RiskPerTrade + delta)
	}
	if delta, ok := d.Risk[RiskFieldMaxPositionPct]; ok {
		out.Risk.MaxPositionPct = Clamp01(out.Risk.MaxPositionPct + delta)
	}
	if delta, ok := d.Risk[RiskFieldStopLossPct]; ok {
		out.Risk.StopLossPct = Clamp01(out.Risk.StopLossPct + delta)
	}
	if d.PreferredRegime != "" {
		out.StrategyBias.PreferredRegime = d.PreferredRegime
	}
	return out
}

// Clamp01 bounds v to [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
