package namecheck

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a free-text team name so comparisons are stable:
// surrounding whitespace is trimmed, internal runs collapse to one space, and
// each token is title-cased. Idempotent.
func Normalize(raw string) string {
	tokens := strings.Fields(raw)
	for i, token := range tokens {
		tokens[i] = titleCase(token)
	}
	return strings.Join(tokens, " ")
}

func titleCase(token string) string {
	runes := []rune(strings.ToLower(token))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
