package querylang

import (
	"strconv"
	"strings"

	"github.com/roach88/backlog/internal/queryir"
)

// Expectation texts used in syntax errors.
const (
	expectColumn   = "a column (who, where, type, message, time, date)"
	expectOperator = "an operator (= != <> < > <= >= like between ~)"
	expectVirtOp   = "an operator (= != <> < > <= >= like between)"
	expectLiteral  = "a number, 'string' or word"
	expectTime     = "a time (HH:MM[:SS], YYYY-MM-DD HH:MM:SS or now)"
	expectDate     = "a date (YYYY-MM-DD, today or yesterday)"
	expectAnd      = "and"
	expectQuote    = "a closing quote"
)

// Parser parses search queries into conditions.
type Parser struct {
	lexer *Lexer
	input string
	token Token // current token
}

// NewParser creates a new parser for the given query.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input), input: input}
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.token = p.lexer.NextToken()
}

// Parse parses a whole query. The entire input must be consumed.
func Parse(input string) (queryir.Query, error) {
	p := NewParser(input)

	var conds []queryir.Condition
	for p.token.Type != TOKEN_EOF {
		c, err := p.parseCondition()
		if err != nil {
			return queryir.Query{}, err
		}
		conds = append(conds, c)
	}

	if len(conds) == 0 {
		return queryir.Query{}, ErrEmptyQuery
	}
	return queryir.Query{Conditions: conds}, nil
}

// fail builds a syntax error at the current token.
func (p *Parser) fail(expected string) error {
	if p.token.Type == TOKEN_ILLEGAL && strings.HasPrefix(p.token.Raw, "'") {
		expected = expectQuote
	}
	return newSyntaxError(p.input, p.token, expected)
}

// isKeyword reports whether the current token is the given word, ignoring case.
func (p *Parser) isKeyword(kw string) bool {
	return p.token.Type == TOKEN_WORD && strings.EqualFold(p.token.Literal, kw)
}

// parseCondition parses: column operator operand [and operand].
func (p *Parser) parseCondition() (queryir.Condition, error) {
	if p.token.Type != TOKEN_WORD {
		return queryir.Condition{}, p.fail(expectColumn)
	}
	col, ok := queryir.ParseColumn(p.token.Literal)
	if !ok {
		return queryir.Condition{}, p.fail(expectColumn)
	}
	p.nextToken()

	op, err := p.parseOperator(col)
	if err != nil {
		return queryir.Condition{}, err
	}

	first, err := p.parseOperand(col, op)
	if err != nil {
		return queryir.Condition{}, err
	}
	operands := []queryir.Operand{first}

	if op == queryir.OpBetween {
		if !p.isKeyword("and") {
			return queryir.Condition{}, p.fail(expectAnd)
		}
		p.nextToken()

		second, err := p.parseOperand(col, op)
		if err != nil {
			return queryir.Condition{}, err
		}
		operands = append(operands, second)
	}

	return queryir.Condition{Column: col, Op: op, Operands: operands}, nil
}

// parseOperator parses the operator following col.
func (p *Parser) parseOperator(col queryir.Column) (queryir.Op, error) {
	expected := expectOperator
	if col.IsVirtual() {
		expected = expectVirtOp
	}

	var op queryir.Op
	switch {
	case p.token.Type == TOKEN_OP:
		op = symbolOps[p.token.Literal]
	case p.token.Type == TOKEN_TILDE && !col.IsVirtual():
		op = queryir.OpContains
	case p.isKeyword("like"):
		op = queryir.OpLike
	case p.isKeyword("between"):
		op = queryir.OpBetween
	}
	if op == 0 {
		return 0, p.fail(expected)
	}

	p.nextToken()
	return op, nil
}

var symbolOps = func() map[string]queryir.Op {
	m := make(map[string]queryir.Op, len(queryir.ComparisonOps))
	for _, op := range queryir.ComparisonOps {
		m[op.String()] = op
	}
	return m
}()

// parseOperand parses one operand of the kind col takes.
func (p *Parser) parseOperand(col queryir.Column, op queryir.Op) (queryir.Operand, error) {
	var (
		operand  queryir.Operand
		expected string
	)

	switch col {
	case queryir.ColumnTime:
		expected = expectTime
		operand = p.timeOperand()
	case queryir.ColumnDate:
		expected = expectDate
		operand = p.dateOperand()
	default:
		expected = expectLiteral
		operand = p.literalOperand()
	}

	if operand == nil {
		return nil, p.fail(expected)
	}
	p.nextToken()
	return operand, nil
}

// literalOperand converts the current token to a Number, String or Word.
func (p *Parser) literalOperand() queryir.Operand {
	switch p.token.Type {
	case TOKEN_NUMBER:
		n, err := strconv.ParseInt(p.token.Literal, 10, 64)
		if err != nil {
			// Too large for a number: still a valid \w+ word.
			return queryir.Word{Value: p.token.Literal}
		}
		return queryir.Number{Value: n}
	case TOKEN_STRING:
		return queryir.String{Value: p.token.Literal}
	case TOKEN_WORD:
		return queryir.Word{Value: p.token.Literal}
	default:
		return nil
	}
}

// timeOperand converts the current token to a TimeOfDay, DateTime or Now.
func (p *Parser) timeOperand() queryir.Operand {
	switch {
	case p.token.Type == TOKEN_TIME:
		t, ok := parseClock(p.token.Literal)
		if !ok {
			return nil
		}
		return t
	case p.token.Type == TOKEN_DATETIME:
		d, ok := parseCalendar(p.token.Literal[:10])
		if !ok {
			return nil
		}
		t, ok := parseClock(strings.TrimLeft(p.token.Literal[10:], "T \t\r\n\v\f"))
		if !ok {
			return nil
		}
		return queryir.DateTime{Date: d, Time: t}
	case p.isKeyword("now"):
		return queryir.Now{}
	default:
		return nil
	}
}

// dateOperand converts the current token to a Date, Today or Yesterday.
func (p *Parser) dateOperand() queryir.Operand {
	switch {
	case p.token.Type == TOKEN_DATE:
		d, ok := parseCalendar(p.token.Literal)
		if !ok {
			return nil
		}
		return d
	case p.isKeyword("today"):
		return queryir.Today{}
	case p.isKeyword("yesterday"):
		return queryir.Yesterday{}
	default:
		return nil
	}
}

// parseClock parses HH:MM[:SS] with range checks.
func parseClock(s string) (queryir.TimeOfDay, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return queryir.TimeOfDay{}, false
	}
	vals := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return queryir.TimeOfDay{}, false
		}
		vals[i] = n
	}
	t := queryir.TimeOfDay{Hour: vals[0], Minute: vals[1], Second: vals[2]}
	if t.Hour > 23 || t.Minute > 59 || t.Second > 59 {
		return queryir.TimeOfDay{}, false
	}
	return t, true
}

// parseCalendar parses YYYY-MM-DD with range checks.
func parseCalendar(s string) (queryir.Date, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return queryir.Date{}, false
	}
	var vals [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return queryir.Date{}, false
		}
		vals[i] = n
	}
	d := queryir.Date{Year: vals[0], Month: vals[1], Day: vals[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return queryir.Date{}, false
	}
	return d, true
}
