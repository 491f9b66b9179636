package search

import (
	"slices"
	"sort"

	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const DefaultRRFK = 60

// fuseRRF merges ranked lists via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) over every list where d appears, with 1-based ranks.
// Exact ties keep first-seen order: earlier lists first, then position within the list.
// The first non-empty snippet seen for a document is kept.
func fuseRRF(k int, lists ...ranked.List) ranked.List {
	if k <= 0 {
		k = DefaultRRFK
	}

	type entry struct {
		id      string
		snippet string
		ranks   []int
	}

	index := make(map[string]int)
	var entries []*entry

	for _, l := range lists {
		seen := make(map[string]struct{}, len(l))
		for pos, h := range l {
			if _, dup := seen[h.ID]; dup {
				continue
			}
			seen[h.ID] = struct{}{}

			i, ok := index[h.ID]
			if !ok {
				i = len(entries)
				index[h.ID] = i
				entries = append(entries, &entry{id: h.ID})
			}
			e := entries[i]
			e.ranks = append(e.ranks, pos+1)
			if e.snippet == "" {
				e.snippet = h.Snippet
			}
		}
	}

	fused := make(ranked.List, len(entries))
	for i, e := range entries {
		fused[i] = ranked.Hit{ID: e.id, Score: rrfScore(k, e.ranks), Snippet: e.snippet}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}

// rrfScore sums reciprocal ranks smallest term first, so equal rank multisets produce bit-identical scores
// regardless of list order.
func rrfScore(k int, ranks []int) float64 {
	sorted := slices.Clone(ranks)
	slices.SortFunc(sorted, func(a, b int) int { return b - a })

	var score float64
	for _, r := range sorted {
		score += 1.0 / float64(k+r)
	}
	return score
}
