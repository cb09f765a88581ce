package policy

import (
	"fmt"

	"github.com/yourusername/learning-agent/internal/analytics"
	"github.com/yourusername/learning-agent/internal/models"
)

// Reweighter proposes signal-source weight deltas from per-source accuracy. It returns
// the deltas and a reasoning line, empty when nothing changed.
type Reweighter interface {
	Reweight(accuracies map[string]float64, policy models.PolicyConfig) (map[string]float64, string)
}

// MedianReweighter rewards sources above the median accuracy and penalises those below,
// each by at most Step and never past the [0,1] bounds
type MedianReweighter struct {
	Step float64
}

// Reweight implements Reweighter
func (r MedianReweighter) Reweight(accuracies map[string]float64, policy models.PolicyConfig) (map[string]float64, string) {
	deltas := make(map[string]float64)
	if len(accuracies) == 0 {
		return deltas, ""
	}

	median := analytics.Median(analytics.MapValues(accuracies))
	for _, agent := range analytics.SortedKeys(accuracies) {
		accuracy := accuracies[agent]
		weight := policy.Weight(agent)
		switch {
		case accuracy > median && weight < 1:
			if step := boundedStep(r.Step, headroom(weight)); step.IsPositive() {
				deltas[agent] = step.InexactFloat64()
			}
		case accuracy < median && weight > 0:
			if step := boundedStep(r.Step, weight); step.IsPositive() {
				deltas[agent] = step.Neg().InexactFloat64()
			}
		}
	}

	if len(deltas) == 0 {
		return deltas, ""
	}
	return deltas, "Adjusting agent weights based on recent performance."
}

// ZeroSumReweighter moves one step of weight from the least to the most accurate source.
// The two deltas always cancel exactly.
type ZeroSumReweighter struct {
	Step float64
}

// Reweight implements Reweighter
func (r ZeroSumReweighter) Reweight(accuracies map[string]float64, policy models.PolicyConfig) (map[string]float64, string) {
	deltas := make(map[string]float64)
	if len(accuracies) < 2 {
		return deltas, ""
	}

	var best, worst string
	for _, agent := range analytics.SortedKeys(accuracies) {
		if best == "" || accuracies[agent] > accuracies[best] {
			best = agent
		}
		if worst == "" || accuracies[agent] < accuracies[worst] {
			worst = agent
		}
	}
	if accuracies[best] == accuracies[worst] {
		return deltas, ""
	}

	limit := headroom(policy.Weight(best))
	if w := policy.Weight(worst); w < limit {
		limit = w
	}
	step := boundedStep(r.Step, limit)
	if !step.IsPositive() {
		return deltas, ""
	}

	deltas[best] = step.InexactFloat64()
	deltas[worst] = step.Neg().InexactFloat64()
	return deltas, fmt.Sprintf("Reallocating %s weight from '%s' to '%s' based on relative accuracy.",
		step.String(), worst, best)
}
