package query

import "math"

// coalesce groups results by parentDocId (standalone items are singleton
// groups keyed by their own id), keeps only the top-scoring item per
// group, and boosts its score by the group's synergy factor.
func coalesce(results []Item) []Item {
	type group struct {
		best  Item
		count int
	}
	groups := make(map[string]*group, len(results))
	order := make([]string, 0, len(results))

	for _, item := range results {
		key := item.Metadata.ParentDocID
		if key == "" {
			key = item.ID
		}
		g, ok := groups[key]
		if !ok {
			g = &group{best: item, count: 1}
			groups[key] = g
			order = append(order, key)
			continue
		}
		g.count++
		if item.Score > g.best.Score {
			g.best = item
		}
	}

	out := make([]Item, 0, len(order))
	for _, key := range order {
		g := groups[key]
		best := g.best
		if g.count > 1 {
			synergy := math.Min(math.Log(float64(g.count))*0.05, 0.15)
			best.Score = math.Min(1, best.Score*(1+synergy))
		}
		out = append(out, best)
	}
	return out
}
