// Package querylang parses the search language into a queryir.Query.
//
// The language is a whitespace-separated list of conditions, all of which
// must hold:
//
//	who = alice  where = '#go'  message ~ deadlock  date = yesterday
//
// There is no explicit and/or between conditions and no grouping. Any input
// that does not parse from start to end is a *SyntaxError; input without
// conditions is ErrEmptyQuery.
package querylang

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_WORD   // \w+ (columns and keywords are words too)
	TOKEN_NUMBER // unsigned integer
	TOKEN_STRING // 'quoted', Literal holds the unquoted value

	TOKEN_OP    // = != <> < > <= >=
	TOKEN_TILDE // ~

	TOKEN_TIME     // HH:MM or HH:MM:SS
	TOKEN_DATE     // YYYY-MM-DD
	TOKEN_DATETIME // YYYY-MM-DD HH:MM:SS or YYYY-MM-DDTHH:MM:SS
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:      "end of input",
	TOKEN_ILLEGAL:  "illegal character",
	TOKEN_WORD:     "word",
	TOKEN_NUMBER:   "number",
	TOKEN_STRING:   "string",
	TOKEN_OP:       "operator",
	TOKEN_TILDE:    "~",
	TOKEN_TIME:     "time",
	TOKEN_DATE:     "date",
	TOKEN_DATETIME: "datetime",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexical token.
type Token struct {
	Type    TokenType
	Literal string // token value; unquoted for strings
	Raw     string // source text of the token
	Pos     int    // byte offset in the source
}
