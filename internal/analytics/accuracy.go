package analytics

import "github.com/yourusername/learning-agent/internal/models"

// DefaultAccuracyWindow is the lookback used when callers do not pick one
const DefaultAccuracyWindow = 50

// AgentAccuracy scores each signal source over the most recent window of trades.
//
// Only buy/sell votes count. A vote is correct when it matched the action of a
// profitable trade, or differed from the action of an unprofitable one. Sources
// without a single directional vote are absent from the result.
func AgentAccuracy(trades []models.Trade, window int) map[string]float64 {
	correct := make(map[string]int)
	total := make(map[string]int)

	for _, trade := range Recent(trades, window) {
		profitable := trade.IsProfitable()
		for agent, vote := range trade.AgentVotes {
			if !vote.Action.IsDirectional() {
				continue
			}
			total[agent]++
			matches := vote.Action == trade.Action
			if (profitable && matches) || (!profitable && !matches) {
				correct[agent]++
			}
		}
	}

	accuracies := make(map[string]float64, len(total))
	for agent, n := range total {
		if n == 0 {
			continue
		}
		accuracies[agent] = models.Clamp01(ratio(correct[agent], n))
	}
	return accuracies
}
