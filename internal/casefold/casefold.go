// Package casefold provides the Unicode-aware string functions the log
// store installs into SQLite.
//
// SQLite's built-in lower(), upper(), LIKE and NOCASE collation only
// understand ASCII. Channel names and nicknames on IRC are routinely
// non-ASCII, so the store replaces them with the functions in this package:
//
//	lower(x)        -> Lower
//	upper(x)        -> Upper
//	x LIKE pattern  -> Like(pattern, x)
//	COLLATE NOCASE  -> Compare
//	COLLATE FOLD    -> Compare
//	COLLATE LOGTEXT -> Compare (when the store runs with folded collation)
//
// All functions are pure. Casers from golang.org/x/text are stateful, so a
// fresh one is created per call instead of sharing a package-level value
// between SQLite connections.
package casefold

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Lower returns s with all Unicode letters mapped to lower case.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Upper returns s with all Unicode letters mapped to upper case.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Fold returns the NFC-normalised full case fold of s.
// Two strings are equal up to case iff their folds are equal.
func Fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}

// Compare orders a and b case-insensitively.
// It returns -1, 0 or 1 and is antisymmetric: Compare(a, b) == -Compare(b, a).
func Compare(a, b string) int {
	return strings.Compare(Fold(a), Fold(b))
}

// Equal reports whether a and b are equal up to case.
func Equal(a, b string) bool {
	return Compare(a, b) == 0
}
