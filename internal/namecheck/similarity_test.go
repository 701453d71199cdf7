package namecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"sales team", "sale team", 1},
		{"Sales Team", "sales team", 0}, // case insensitive
		{"flaw", "lawn", 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Distance(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestDistanceIdentityAndSymmetry(t *testing.T) {
	words := []string{"", "a", "sales", "sales team", "поддержка"}
	for _, w := range words {
		assert.Zero(t, Distance(w, w))
	}
	for _, a := range words {
		for _, b := range words {
			assert.Equal(t, Distance(a, b), Distance(b, a))
		}
	}
}

func TestIsSimilarWithinCutoff(t *testing.T) {
	m := NewMatcher(3)
	assert.True(t, m.IsSimilar("Sale Team", "Sales Team"))
	assert.True(t, m.IsSimilar("sales  team", "Sales Team"))
	assert.False(t, m.IsSimilar("Marketing", "Sales Team"))
}

func TestIsSimilarSubstringContainment(t *testing.T) {
	m := NewMatcher(3)
	assert.True(t, m.IsSimilar("Sales", "Enterprise Sales"))
	assert.True(t, m.IsSimilar("Enterprise Sales", "Sales"))
}

func TestIsSimilarConfigurableCutoff(t *testing.T) {
	strict := NewMatcher(1)
	assert.False(t, strict.IsSimilar("Sale Team", "Sales Team"))

	// distance("sale", "team") is 4: below a cutoff of 5, not below 3
	loose := NewMatcher(5)
	assert.True(t, loose.IsSimilar("Sale", "Team"))
	assert.False(t, NewMatcher(3).IsSimilar("Sale", "Team"))

	// non-positive cutoff falls back to the default
	fallback := NewMatcher(0)
	assert.True(t, fallback.IsSimilar("Sale Team", "Sales Team"))
}

func TestIsSimilarEmptyNames(t *testing.T) {
	m := NewMatcher(3)
	assert.False(t, m.IsSimilar("", "Sales Team"))
	assert.False(t, m.IsSimilar("  ", "Sales Team"))
}
