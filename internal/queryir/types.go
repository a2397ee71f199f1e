package queryir

import (
	"fmt"
	"strconv"
	"strings"
)

// Column is a column selector of the query language.
type Column int

const (
	ColumnWho Column = iota + 1
	ColumnWhere
	ColumnType
	ColumnMessage
	ColumnTime // virtual: local datetime of the stored time
	ColumnDate // virtual: local date of the stored time
)

var columnNames = map[Column]string{
	ColumnWho:     "who",
	ColumnWhere:   "where",
	ColumnType:    "type",
	ColumnMessage: "message",
	ColumnTime:    "time",
	ColumnDate:    "date",
}

// Columns lists every column in grammar order.
var Columns = []Column{ColumnWho, ColumnWhere, ColumnType, ColumnMessage, ColumnTime, ColumnDate}

// String returns the query-language keyword of the column.
func (c Column) String() string {
	if name, ok := columnNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Column(%d)", int(c))
}

// IsVirtual reports whether the column is derived from the stored time.
func (c Column) IsVirtual() bool {
	return c == ColumnTime || c == ColumnDate
}

// ParseColumn looks up a column keyword, ignoring case.
func ParseColumn(name string) (Column, bool) {
	lower := strings.ToLower(name)
	for _, c := range Columns {
		if columnNames[c] == lower {
			return c, true
		}
	}
	return 0, false
}

// Op is a condition operator.
type Op int

const (
	OpEq       Op = iota + 1 // =
	OpNe                     // !=
	OpNeAlt                  // <>
	OpLt                     // <
	OpGt                     // >
	OpLe                     // <=
	OpGe                     // >=
	OpLike                   // like
	OpBetween                // between X and Y
	OpContains               // ~, desugared to like '%X%'
)

var opSymbols = map[Op]string{
	OpEq:       "=",
	OpNe:       "!=",
	OpNeAlt:    "<>",
	OpLt:       "<",
	OpGt:       ">",
	OpLe:       "<=",
	OpGe:       ">=",
	OpLike:     "like",
	OpBetween:  "between",
	OpContains: "~",
}

// ComparisonOps are the binary operators written as symbols, longest first.
var ComparisonOps = []Op{OpNe, OpNeAlt, OpLe, OpGe, OpEq, OpLt, OpGt}

// String returns the query-language spelling of the operator.
func (o Op) String() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Arity is the number of operands the operator takes.
func (o Op) Arity() int {
	if o == OpBetween {
		return 2
	}
	return 1
}

// Operand is a value on the right-hand side of a condition.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	operandNode()
	String() string
}

// Number is an unsigned integer literal.
type Number struct {
	Value int64
}

func (Number) operandNode() {}

func (n Number) String() string { return strconv.FormatInt(n.Value, 10) }

// String is a single-quoted string literal. Value has the quotes removed
// and escapes resolved.
type String struct {
	Value string
}

func (String) operandNode() {}

func (s String) String() string {
	return "'" + strings.ReplaceAll(s.Value, "'", "''") + "'"
}

// Word is a bare \w+ token used as a value.
type Word struct {
	Value string
}

func (Word) operandNode() {}

func (w Word) String() string { return w.Value }

// TimeOfDay is HH:MM[:SS] on the current local date.
type TimeOfDay struct {
	Hour, Minute, Second int
}

func (TimeOfDay) operandNode() {}

// String renders HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Date is a calendar date YYYY-MM-DD.
type Date struct {
	Year, Month, Day int
}

func (Date) operandNode() {}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DateTime is a local date and time, written YYYY-MM-DD HH:MM:SS or
// YYYY-MM-DDTHH:MM:SS.
type DateTime struct {
	Date Date
	Time TimeOfDay
}

func (DateTime) operandNode() {}

// String renders the SQLite datetime form YYYY-MM-DD HH:MM:SS.
func (dt DateTime) String() string {
	return dt.Date.String() + " " + dt.Time.String()
}

// Now is the current local time.
type Now struct{}

func (Now) operandNode() {}

func (Now) String() string { return "now" }

// Today is the current local date.
type Today struct{}

func (Today) operandNode() {}

func (Today) String() string { return "today" }

// Yesterday is the previous local date.
type Yesterday struct{}

func (Yesterday) operandNode() {}

func (Yesterday) String() string { return "yesterday" }

// Condition is one clause: column, operator and operands.
type Condition struct {
	Column   Column
	Op       Op
	Operands []Operand
}

// String renders the condition in query-language syntax.
func (c Condition) String() string {
	parts := []string{c.Column.String(), c.Op.String()}
	for i, o := range c.Operands {
		if i > 0 {
			parts = append(parts, "and")
		}
		if o == nil {
			parts = append(parts, "<nil>")
			continue
		}
		parts = append(parts, o.String())
	}
	return strings.Join(parts, " ")
}

// Query is a parsed search: its conditions in source order, all of which
// must hold.
type Query struct {
	Conditions []Condition
}

// String renders the query in canonical query-language syntax.
func (q Query) String() string {
	parts := make([]string, len(q.Conditions))
	for i, c := range q.Conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
