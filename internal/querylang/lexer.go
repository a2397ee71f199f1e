package querylang

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Date and time shapes, tried in this order at a digit.
var (
	datetimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:T|\s+)\d{2}:\d{2}:\d{2}`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	timeRe     = regexp.MustCompile(`^\d{2}:\d{2}(?::\d{2})?`)
)

// Lexer tokenizes search queries.
type Lexer struct {
	input string
	pos   int // byte offset of the next unread rune
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// peekRune returns the rune at offset without advancing.
func (l *Lexer) peekRune(offset int) (rune, int) {
	if offset >= len(l.input) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.input[offset:])
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.pos
	ch, size := l.peekRune(l.pos)
	if size == 0 {
		return Token{Type: TOKEN_EOF, Pos: start}
	}

	switch {
	case ch == '\'':
		return l.readString()
	case ch == '~':
		l.pos += size
		return l.token(TOKEN_TILDE, "~", start)
	case ch == '=' || ch == '!' || ch == '<' || ch == '>':
		return l.readOperator()
	case ch >= '0' && ch <= '9':
		if tok, ok := l.readDateOrTime(); ok {
			return tok
		}
		return l.readWord()
	case isWordRune(ch):
		return l.readWord()
	default:
		l.pos += size
		return l.token(TOKEN_ILLEGAL, string(ch), start)
	}
}

// Tokenize returns every token up to and including EOF, or the first
// illegal token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == TOKEN_EOF || tok.Type == TOKEN_ILLEGAL {
			return out
		}
	}
}

func (l *Lexer) token(typ TokenType, literal string, start int) Token {
	return Token{Type: typ, Literal: literal, Raw: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for {
		ch, size := l.peekRune(l.pos)
		if size == 0 || !unicode.IsSpace(ch) {
			return
		}
		l.pos += size
	}
}

// readOperator reads one of = != <> < > <= >=, longest match first.
func (l *Lexer) readOperator() Token {
	start := l.pos
	rest := l.input[l.pos:]
	for _, op := range []string{"!=", "<>", "<=", ">=", "=", "<", ">"} {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			return l.token(TOKEN_OP, op, start)
		}
	}
	// A lone '!'.
	l.pos++
	return l.token(TOKEN_ILLEGAL, "!", start)
}

// readString reads a single-quoted string. '' and \' stand for a quote,
// \\ for a backslash. Strings may not span lines.
func (l *Lexer) readString() Token {
	start := l.pos
	l.pos++ // opening quote

	var b strings.Builder
	for {
		ch, size := l.peekRune(l.pos)
		switch {
		case size == 0 || ch == '\n' || ch == '\r':
			return Token{Type: TOKEN_ILLEGAL, Literal: "unterminated string", Raw: l.input[start:l.pos], Pos: start}
		case ch == '\'':
			if next, _ := l.peekRune(l.pos + 1); next == '\'' {
				b.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return l.token(TOKEN_STRING, b.String(), start)
		case ch == '\\':
			next, nsize := l.peekRune(l.pos + 1)
			if next == '\'' || next == '\\' {
				b.WriteRune(next)
				l.pos += 1 + nsize
				continue
			}
			b.WriteByte('\\')
			l.pos++
		default:
			b.WriteRune(ch)
			l.pos += size
		}
	}
}

// readDateOrTime matches a datetime, date or time-of-day at the current
// position. The match must end at a word boundary.
func (l *Lexer) readDateOrTime() (Token, bool) {
	rest := l.input[l.pos:]
	for _, shape := range []struct {
		re  *regexp.Regexp
		typ TokenType
	}{
		{datetimeRe, TOKEN_DATETIME},
		{dateRe, TOKEN_DATE},
		{timeRe, TOKEN_TIME},
	} {
		m := shape.re.FindString(rest)
		if m == "" {
			continue
		}
		if next, size := l.peekRune(l.pos + len(m)); size > 0 && isWordRune(next) {
			continue
		}
		start := l.pos
		l.pos += len(m)
		return l.token(shape.typ, m, start), true
	}
	return Token{}, false
}

// readWord reads a \w+ run. A run of ASCII digits is a number.
func (l *Lexer) readWord() Token {
	start := l.pos
	digits := true
	for {
		ch, size := l.peekRune(l.pos)
		if size == 0 || !isWordRune(ch) {
			break
		}
		if ch < '0' || ch > '9' {
			digits = false
		}
		l.pos += size
	}

	word := l.input[start:l.pos]
	if digits {
		return l.token(TOKEN_NUMBER, word, start)
	}
	return l.token(TOKEN_WORD, word, start)
}

// isWordRune reports whether ch belongs to \w (Unicode letters, digits and
// underscore).
func isWordRune(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch) || unicode.Is(unicode.Mn, ch)
}
