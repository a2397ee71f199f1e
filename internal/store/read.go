package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidCount is returned by Backlog for a non-positive line count.
var ErrInvalidCount = errors.New("line count must be positive")

// Rows is a lazily read query result. Callers must Close it.
type Rows struct {
	rows *sql.Rows
	cols []string
	cur  []any
	err  error
}

// Next advances to the next row. It returns false at the end of the
// result or on error; check Err afterwards.
func (r *Rows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}

	vals := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.err = fmt.Errorf("scan row: %w", err)
		return false
	}

	r.cur = vals
	return true
}

// Columns returns the result column names in select order.
func (r *Rows) Columns() []string {
	return r.cols
}

// Values returns the raw column values of the current row.
func (r *Rows) Values() []any {
	return r.cur
}

// Row decodes the current row as a log row.
//
// The result must carry the columns time, who, where, message and type
// (in any order, as produced by RowColumns).
func (r *Rows) Row() (Row, error) {
	return decodeRow(r.cols, r.cur)
}

// Err returns the first error met while iterating.
func (r *Rows) Err() error {
	if r.err != nil {
		return r.err
	}
	if err := r.rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// Close releases the result.
func (r *Rows) Close() error {
	return r.rows.Close()
}

// All drains the result into log rows and closes it.
// Returns an empty slice (not nil) for an empty result.
func (r *Rows) All() ([]Row, error) {
	defer r.Close()

	out := []Row{}
	for r.Next() {
		row, err := r.Row()
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RowColumns is the quoted select list that decodes into Row.
const RowColumns = `"time", "who", "where", "type", "message"`

// Query executes a parameterised read and returns the rows lazily.
// Parameters are always bound, never interpolated into sql.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("query log: %w", err)
	}

	return &Rows{rows: rows, cols: cols}, nil
}

// Backlog returns the newest n lines logged for target, oldest first.
//
// target is compared case-insensitively with lower(); ties in time keep
// insertion order.
func (s *Store) Backlog(ctx context.Context, target string, n int) ([]Row, error) {
	if n <= 0 {
		return nil, fmt.Errorf("backlog %q: %w", target, ErrInvalidCount)
	}

	rows, err := s.Query(ctx, `
		SELECT `+RowColumns+` FROM (
			SELECT rowid AS seq, `+RowColumns+`
			FROM "log"
			WHERE lower("where") = lower(?)
			ORDER BY "time" DESC, rowid DESC
			LIMIT ?
		)
		ORDER BY "time" ASC, seq ASC
	`, target, n)
	if err != nil {
		return nil, fmt.Errorf("backlog %q: %w", target, err)
	}

	out, err := rows.All()
	if err != nil {
		return nil, fmt.Errorf("backlog %q: %w", target, err)
	}
	return out, nil
}

// Count returns the number of logged lines.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "log"`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count log: %w", err)
	}
	return n, nil
}

// decodeRow maps named column values onto a Row.
func decodeRow(cols []string, vals []any) (Row, error) {
	var (
		row  Row
		seen int
	)
	for i, col := range cols {
		v := vals[i]
		switch col {
		case "time":
			t, err := timeFromColumn(v)
			if err != nil {
				return Row{}, fmt.Errorf("decode row: %w", err)
			}
			row.Time = t
		case "who":
			if v == nil {
				row.Who = Own()
			} else {
				row.Who = Other(sqlText(v))
			}
		case "where":
			row.Where = sqlText(v)
		case "message":
			row.Message = sqlText(v)
		case "type":
			row.Type = sqlText(v)
		default:
			continue
		}
		seen++
	}
	if seen < 5 {
		return Row{}, fmt.Errorf("decode row: result has columns %v, want %s", cols, RowColumns)
	}
	return row, nil
}
