package casefold

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Like implements the SQL LIKE predicate, case-insensitively.
//
// In pattern, '%' matches any run of characters (including none), '_'
// matches exactly one character and every other character matches itself
// up to case. The whole of text must match. A nil text (SQL NULL) never
// matches.
func Like(pattern string, text *string) bool {
	if text == nil {
		return false
	}
	return Match(pattern, *text)
}

// Match is Like for a text that is known to be present.
//
// Both sides are NFC-normalised and then compared rune by rune with simple
// case folding, so a character never changes length: '_' consumes exactly
// one rune of text even for 'ß' or 'ﬁ', whose full folds are two letters.
func Match(pattern, text string) bool {
	return matchRunes([]rune(norm.NFC.String(pattern)), []rune(norm.NFC.String(text)))
}

// matchRunes is the iterative wildcard matcher: on mismatch it backtracks to
// the most recent '%' and lets it swallow one more rune.
func matchRunes(p, t []rune) bool {
	pi, ti := 0, 0
	star, mark := -1, 0

	for ti < len(t) {
		switch {
		case pi < len(p) && p[pi] == '%':
			star = pi
			mark = ti
			pi++
		case pi < len(p) && (p[pi] == '_' || equalRune(p[pi], t[ti])):
			pi++
			ti++
		case star >= 0:
			pi = star + 1
			mark++
			ti = mark
		default:
			return false
		}
	}

	// Only trailing '%' may remain.
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}

// equalRune reports whether a and b are the same letter up to simple case
// folding (the SimpleFold orbit, e.g. k, K and the Kelvin sign).
func equalRune(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
