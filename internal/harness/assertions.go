package harness

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/backlog/internal/engine"
	"github.com/roach88/backlog/internal/store"
)

// validIdentifier matches valid SQL column names.
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// allowedTables are the tables state assertions may read.
var allowedTables = map[string]bool{
	"log":      true,
	"settings": true,
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %q\n", event.Seq, event.Event, event.Text)
			for _, out := range event.Outputs {
				fmt.Fprintf(&buf, "      %s: %s\n", out.To, out.Line)
			}
		}
	}

	return buf.String()
}

// assertOutputContains checks that a line was written to a channel.
func assertOutputContains(result *Result, assertion Assertion) error {
	lines := result.Outputs(engine.Channel(assertion.Channel))
	if slices.Contains(lines, assertion.Line) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Expected: fmt.Sprintf("%s line %q", assertion.Channel, assertion.Line),
		Actual:   "not found in output",
		Trace:    result.Trace,
	}
}

// assertOutputOrder checks that lines appear on a channel in order.
// They don't need to be consecutive.
func assertOutputOrder(result *Result, assertion Assertion) error {
	lines := result.Outputs(engine.Channel(assertion.Channel))

	pos := 0
	for _, want := range assertion.Lines {
		idx := slices.Index(lines[pos:], want)
		if idx < 0 {
			return &AssertionError{
				Type:     AssertOutputOrder,
				Expected: fmt.Sprintf("%s lines in order: %q", assertion.Channel, assertion.Lines),
				Actual:   fmt.Sprintf("missing or out of order: %q", want),
				Trace:    result.Trace,
			}
		}
		pos += idx + 1
	}
	return nil
}

// assertOutputCount checks the number of lines written to a channel.
func assertOutputCount(result *Result, assertion Assertion) error {
	got := len(result.Outputs(engine.Channel(assertion.Channel)))
	if got == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputCount,
		Expected: fmt.Sprintf("%d %s lines", assertion.Count, assertion.Channel),
		Actual:   fmt.Sprintf("%d lines", got),
		Trace:    result.Trace,
	}
}

// selectRows runs SELECT * on the assertion's table with its filters.
func selectRows(ctx context.Context, st *store.Store, assertion Assertion) (*store.Rows, error) {
	table := assertion.Table
	if table == "" {
		table = "log"
	}
	if !allowedTables[table] {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return nil, err
	}

	// Table name checked against allowedTables above
	query := fmt.Sprintf(`SELECT * FROM %q`, table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	query += " ORDER BY rowid"

	return st.Query(ctx, query, whereArgs...)
}

// assertFinalState checks that exactly one row matches and carries the
// expected values (subset semantics).
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	rows, err := selectRows(ctx, st, assertion)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query %s", tableName(assertion)),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns := rows.Columns()
	whereDesc := formatWhereClause(assertion.Where)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("read %s: %w", tableName(assertion), err)
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", tableName(assertion), whereDesc),
			Actual:   "row not found",
		}
	}
	values := rows.Values()

	// Check for multiple matching rows (would indicate ambiguous assertion)
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", tableName(assertion), whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	keys := sortedKeys(assertion.Expect)
	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// assertRowCount checks how many rows match the filters.
func assertRowCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	rows, err := selectRows(ctx, st, assertion)
	if err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("query %s", tableName(assertion)),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read %s: %w", tableName(assertion), err)
	}

	if n != assertion.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s where %s", assertion.Count, tableName(assertion), formatWhereClause(assertion.Where)),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

func tableName(a Assertion) string {
	if a.Table == "" {
		return "log"
	}
	return a.Table
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
//
// Security: Column names are validated against a whitelist pattern to prevent
// SQL injection via identifier interpolation.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		// "where" is a keyword, so every column is quoted
		if where[key] == nil {
			clauses = append(clauses, fmt.Sprintf(`%q IS NULL`, key))
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`%q = ?`, key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded value to a SQL-compatible value.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateValuesEqual compares expected and actual values from the database.
// SQLite hands back TEXT as string or []byte and integers as int64.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case int:
		actualInt, ok := actual.(int64)
		return ok && int64(exp) == actualInt
	case int64:
		actualInt, ok := actual.(int64)
		return ok && exp == actualInt
	case bool:
		// SQLite stores booleans as integers
		actualInt, ok := actual.(int64)
		return ok && exp == (actualInt != 0)
	}

	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputContains:
			err = assertOutputContains(result, assertion)
		case AssertOutputOrder:
			err = assertOutputOrder(result, assertion)
		case AssertOutputCount:
			err = assertOutputCount(result, assertion)
		case AssertFinalState, AssertRowCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			} else {
				err = assertRowCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
