package analytics

import "github.com/yourusername/learning-agent/internal/models"

// AssetGroup is the chronological trade list of one asset
type AssetGroup struct {
	AssetID string
	Trades  []models.Trade
}

// GroupByAsset partitions trades by asset. Every trade lands in exactly one group,
// and groups are ordered by first appearance so results are reproducible.
func GroupByAsset(trades []models.Trade) []AssetGroup {
	index := make(map[string]int)
	groups := make([]AssetGroup, 0)
	for _, t := range trades {
		i, ok := index[t.AssetID]
		if !ok {
			i = len(groups)
			index[t.AssetID] = i
			groups = append(groups, AssetGroup{AssetID: t.AssetID})
		}
		groups[i].Trades = append(groups[i].Trades, t)
	}
	return groups
}

// MaxConsecutiveLosses returns the longest run of non-profitable trades
func MaxConsecutiveLosses(trades []models.Trade) int {
	longest, current := 0, 0
	for _, t := range trades {
		if t.IsProfitable() {
			current = 0
			continue
		}
		current++
		if current > longest {
			longest = current
		}
	}
	return longest
}
