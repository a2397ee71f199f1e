package queryir

import (
	"fmt"
)

// ValidationError reports a condition that the query language does not allow.
type ValidationError struct {
	Index     int       // position of the condition in the query
	Condition Condition // offending condition
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("condition %d (%s): %s", e.Index+1, e.Condition, e.Reason)
}

// Validate checks every condition of q.
//
// Rules:
//  1. The column and operator are known
//  2. The operand count matches the operator arity
//  3. Stored columns take literals (Number, String, Word)
//  4. time takes TimeOfDay, DateTime or Now
//  5. date takes Date, Today or Yesterday
//  6. ~ applies to stored columns only
//  7. Dates and times are in range
//
// An empty query is valid here; rejecting it is the caller's decision.
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	for i, c := range q.Conditions {
		if reason := checkCondition(c); reason != "" {
			return &ValidationError{Index: i, Condition: c, Reason: reason}
		}
	}
	return nil
}

// checkCondition returns why c is invalid, or "".
func checkCondition(c Condition) string {
	if _, ok := columnNames[c.Column]; !ok {
		return fmt.Sprintf("unknown column %v", c.Column)
	}
	if _, ok := opSymbols[c.Op]; !ok {
		return fmt.Sprintf("unknown operator %v", c.Op)
	}
	if len(c.Operands) != c.Op.Arity() {
		return fmt.Sprintf("operator %s takes %d operand(s), got %d", c.Op, c.Op.Arity(), len(c.Operands))
	}
	if c.Op == OpContains && c.Column.IsVirtual() {
		return fmt.Sprintf("operator ~ does not apply to %s", c.Column)
	}

	for _, o := range c.Operands {
		if o == nil {
			return "missing operand"
		}
		if !operandFits(c.Column, o) {
			return fmt.Sprintf("%s cannot be compared with %s", c.Column, o)
		}
		if reason := checkRange(o); reason != "" {
			return reason
		}
	}
	return ""
}

// operandFits reports whether o may be compared with column c.
func operandFits(c Column, o Operand) bool {
	switch o.(type) {
	case Number, String, Word:
		return !c.IsVirtual()
	case TimeOfDay, DateTime, Now:
		return c == ColumnTime
	case Date, Today, Yesterday:
		return c == ColumnDate
	default:
		return false
	}
}

// checkRange validates calendar and clock fields.
func checkRange(o Operand) string {
	switch v := o.(type) {
	case TimeOfDay:
		return checkClock(v)
	case Date:
		return checkCalendar(v)
	case DateTime:
		if r := checkCalendar(v.Date); r != "" {
			return r
		}
		return checkClock(v.Time)
	case Number:
		if v.Value < 0 {
			return fmt.Sprintf("number %d is negative", v.Value)
		}
	}
	return ""
}

func checkClock(t TimeOfDay) string {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return fmt.Sprintf("time %s out of range", t)
	}
	return ""
}

func checkCalendar(d Date) string {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 || d.Year < 0 || d.Year > 9999 {
		return fmt.Sprintf("date %s out of range", d)
	}
	return ""
}
