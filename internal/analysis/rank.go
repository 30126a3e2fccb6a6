package analysis

import "sort"

// Rank returns opportunities ordered by score, highest first, keeping at most
// topK (all when topK <= 0). Equal scores keep their input order. The input
// slice is not modified.
func Rank(opps []Opportunity, topK int) []Opportunity {
	ranked := make([]Opportunity, len(opps))
	copy(ranked, opps)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
