package graphstore

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// sortSearchResults orders substring matches most-recent-first (spec
// §4.1's find/search contract), breaking ties between nouns created in
// the same instant by edit-distance closeness to the query — the
// fuzzy-match signal relate.go relies on to pick a single best candidate
// when an exact lookup misses (spec §4.3.2).
func sortSearchResults(nouns []*Noun, query string) {
	sort.SliceStable(nouns, func(i, j int) bool {
		if !nouns[i].CreatedAt.Equal(nouns[j].CreatedAt) {
			return nouns[i].CreatedAt.After(nouns[j].CreatedAt)
		}
		return levenshtein.ComputeDistance(nouns[i].Label, query) < levenshtein.ComputeDistance(nouns[j].Label, query)
	})
}

// BestFuzzyMatch returns the closest label to query among candidates by
// edit distance, or nil if candidates is empty. Used by relate.go when an
// exact lookup misses and Search's top hit needs a confidence signal.
func BestFuzzyMatch(query string, candidates []*Noun) *Noun {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestDist := levenshtein.ComputeDistance(best.Label, query)
	for _, n := range candidates[1:] {
		if d := levenshtein.ComputeDistance(n.Label, query); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
