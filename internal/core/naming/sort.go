package naming

import (
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the ordering of a candidate list.
type SortKey string

const (
	SortByScore            SortKey = "score"
	SortByPronounceability SortKey = "pronounceability"
)

// ParseSortKey accepts the sort keys plus an empty value (score).
func ParseSortKey(value string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "score", "total", "totalnamescore":
		return SortByScore, nil
	case "pronounceability", "pronounceabilityscore":
		return SortByPronounceability, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (use score or pronounceability)", value)
	}
}

// Sort returns a copy of candidates ordered descending by the key. Ties keep
// their generated order.
func Sort(candidates []Candidate, key SortKey) []Candidate {
	out := slices.Clone(candidates)
	slices.SortStableFunc(out, func(a, b Candidate) int {
		var av, bv float64
		switch key {
		case SortByPronounceability:
			av, bv = a.PronounceabilityScore, b.PronounceabilityScore
		default:
			av, bv = a.TotalNameScore, b.TotalNameScore
		}
		switch {
		case av > bv:
			return -1
		case av < bv:
			return 1
		default:
			return 0
		}
	})
	return out
}
