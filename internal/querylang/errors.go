package querylang

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned for a query without any condition.
var ErrEmptyQuery = errors.New("a search needs at least one condition")

// maxFragment bounds the quoted fragment in error messages.
const maxFragment = 24

// SyntaxError reports input that does not match the grammar.
type SyntaxError struct {
	Source   string // full query text
	Offset   int    // byte offset of the offending token
	Fragment string // offending text, "" at end of input
	Expected string // what the parser was looking for
}

func (e *SyntaxError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("unexpected end of query at offset %d, expected %s", e.Offset, e.Expected)
	}
	return fmt.Sprintf("unexpected %q at offset %d, expected %s", e.Fragment, e.Offset, e.Expected)
}

// newSyntaxError builds a SyntaxError at tok.
func newSyntaxError(src string, tok Token, expected string) *SyntaxError {
	frag := tok.Raw
	if tok.Type != TOKEN_EOF {
		// Show the rest of the clause, not just one token.
		frag = src[tok.Pos:]
		if r := []rune(frag); len(r) > maxFragment {
			frag = string(r[:maxFragment]) + "..."
		}
	}
	return &SyntaxError{
		Source:   src,
		Offset:   tok.Pos,
		Fragment: frag,
		Expected: expected,
	}
}

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
