// Package querysql compiles a parsed search query into parameterised SQLite.
//
// Every runtime value becomes a ? placeholder with its parameter in the
// same position; column names, operators and the who coalesce are fixed
// SQL text. User input is never interpolated into the statement.
//
// Stored columns compare under their declared collation. The who coalesce
// is an expression and has none, so it names the store's text collation
// itself; own messages then compare like every other nick.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/backlog/internal/queryir"
	"github.com/roach88/backlog/internal/store"
)

var (
	// ErrNoConditions is returned for a query without conditions.
	ErrNoConditions = errors.New("query has no conditions")

	// ErrInvalidLimit is returned for a result limit below one.
	ErrInvalidLimit = errors.New("limit must be at least 1")
)

// SQL text of the virtual columns and time shorthand.
const (
	whoExpr       = `COALESCE("who", ?) COLLATE ` + store.TextCollation
	timeExpr      = `datetime("time", 'localtime')`
	dateExpr      = `date("time", 'localtime')`
	timeOfDayExpr = `datetime(date('now', 'localtime'), ?)`
	nowExpr       = `datetime('now', 'localtime')`
	todayExpr     = `date('now', 'localtime')`
	yesterdayExpr = `date('now', 'localtime', '-1 day')`
)

var storedColumns = map[queryir.Column]string{
	queryir.ColumnWhere:   `"where"`,
	queryir.ColumnType:    `"type"`,
	queryir.ColumnMessage: `"message"`,
}

var opSQL = map[queryir.Op]string{
	queryir.OpEq:       "=",
	queryir.OpNe:       "!=",
	queryir.OpNeAlt:    "<>",
	queryir.OpLt:       "<",
	queryir.OpGt:       ">",
	queryir.OpLe:       "<=",
	queryir.OpGe:       ">=",
	queryir.OpLike:     "LIKE",
	queryir.OpContains: "LIKE",
	queryir.OpBetween:  "BETWEEN",
}

// Compiled is a compiled query.
//
// Fragments holds one WHERE fragment per condition, in source order.
// Params holds the values of every placeholder in the joined fragments, in
// placeholder order; the who coalesce value sits where its clause put it.
// Limit is bound last, after all clause parameters.
type Compiled struct {
	Fragments []string
	Params    []any
	Limit     int
}

// Where joins the fragments with AND.
func (c Compiled) Where() string {
	return strings.Join(c.Fragments, " AND ")
}

// SQL renders the full statement. Rows come back oldest first.
func (c Compiled) SQL() string {
	return `SELECT ` + store.RowColumns + ` FROM "log" WHERE ` + c.Where() +
		` ORDER BY "time" ASC, rowid ASC LIMIT ?`
}

// Args returns the statement parameters: clause parameters, then the limit.
func (c Compiled) Args() []any {
	args := make([]any, 0, len(c.Params)+1)
	args = append(args, c.Params...)
	return append(args, c.Limit)
}

// Compiler compiles queries for one viewer.
type Compiler struct {
	// Self is the viewer's nick; own messages (NULL who) compare as Self.
	Self string
}

// NewCompiler creates a compiler for the viewer self.
func NewCompiler(self string) *Compiler {
	return &Compiler{Self: self}
}

// Compile converts q into SQL fragments and parameters.
func (c *Compiler) Compile(q queryir.Query, limit int) (Compiled, error) {
	if len(q.Conditions) == 0 {
		return Compiled{}, ErrNoConditions
	}
	if limit < 1 {
		return Compiled{}, fmt.Errorf("compile query: %w (got %d)", ErrInvalidLimit, limit)
	}
	if err := queryir.Validate(q); err != nil {
		return Compiled{}, fmt.Errorf("compile query: %w", err)
	}

	out := Compiled{
		Fragments: make([]string, 0, len(q.Conditions)),
		Params:    []any{},
		Limit:     limit,
	}
	for i, cond := range q.Conditions {
		frag, params, err := c.compileCondition(cond)
		if err != nil {
			return Compiled{}, fmt.Errorf("compile condition %d: %w", i+1, err)
		}
		out.Fragments = append(out.Fragments, frag)
		out.Params = append(out.Params, params...)
	}

	return out, nil
}

// compileCondition emits "<column> <op> <operand>[ AND <operand>]".
// Parameters are collected left to right as their placeholders appear.
func (c *Compiler) compileCondition(cond queryir.Condition) (string, []any, error) {
	var params []any

	col, colParams, err := c.compileColumn(cond.Column)
	if err != nil {
		return "", nil, err
	}
	params = append(params, colParams...)

	op, ok := opSQL[cond.Op]
	if !ok {
		return "", nil, fmt.Errorf("unsupported operator %v", cond.Op)
	}

	operands := make([]string, len(cond.Operands))
	for i, o := range cond.Operands {
		sql, p, err := compileOperand(o, cond.Op == queryir.OpContains)
		if err != nil {
			return "", nil, err
		}
		operands[i] = sql
		params = append(params, p...)
	}

	return col + " " + op + " " + strings.Join(operands, " AND "), params, nil
}

// compileColumn returns the SQL expression of a column selector.
func (c *Compiler) compileColumn(col queryir.Column) (string, []any, error) {
	switch col {
	case queryir.ColumnWho:
		return whoExpr, []any{c.Self}, nil
	case queryir.ColumnTime:
		return timeExpr, nil, nil
	case queryir.ColumnDate:
		return dateExpr, nil, nil
	}
	if name, ok := storedColumns[col]; ok {
		return name, nil, nil
	}
	return "", nil, fmt.Errorf("unsupported column %v", col)
}

// compileOperand returns the SQL of one operand and its parameters.
// contains wraps the value in % for substring matching.
func compileOperand(o queryir.Operand, contains bool) (string, []any, error) {
	switch v := o.(type) {
	case queryir.Number:
		if contains {
			return "?", []any{"%" + v.String() + "%"}, nil
		}
		return "?", []any{v.Value}, nil
	case queryir.String:
		return "?", []any{literal(v.Value, contains)}, nil
	case queryir.Word:
		return "?", []any{literal(v.Value, contains)}, nil
	case queryir.TimeOfDay:
		return timeOfDayExpr, []any{v.String()}, nil
	case queryir.DateTime:
		return "?", []any{v.String()}, nil
	case queryir.Date:
		return "?", []any{v.String()}, nil
	case queryir.Now:
		return nowExpr, nil, nil
	case queryir.Today:
		return todayExpr, nil, nil
	case queryir.Yesterday:
		return yesterdayExpr, nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported operand %T", o)
	}
}

func literal(s string, contains bool) string {
	if contains {
		return "%" + s + "%"
	}
	return s
}
