package namecheck

import "strings"

// DefaultMaxDistance is the edit-distance cutoff below which two names are
// considered similar. The value is observed product behavior; change it via
// configuration, not here.
const DefaultMaxDistance = 3

// Distance computes the Levenshtein edit distance between a and b with unit
// costs for insertions, deletions and substitutions. Inputs are lower-cased
// before comparison.
func Distance(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Matcher classifies name pairs as near-duplicates.
type Matcher struct {
	maxDistance int
}

// NewMatcher builds a matcher with the given cutoff; non-positive values fall
// back to DefaultMaxDistance.
func NewMatcher(maxDistance int) Matcher {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return Matcher{maxDistance: maxDistance}
}

// IsSimilar reports whether the two names are close enough to warn about:
// edit distance under the cutoff, or one normalized name containing the other.
func (m Matcher) IsSimilar(a, b string) bool {
	na := strings.ToLower(Normalize(a))
	nb := strings.ToLower(Normalize(b))
	if na == "" || nb == "" {
		return false
	}
	if Distance(na, nb) < m.maxDistance {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
