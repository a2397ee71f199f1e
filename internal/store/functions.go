package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/roach88/backlog/internal/casefold"
)

// Driver names registered with database/sql, one per collation mode.
const (
	driverFolded = "sqlite3_backlog_folded"
	driverBinary = "sqlite3_backlog"
)

// TextCollation is the collation of the log's text columns. Its order is
// the store's Collation: case-folded or byte-wise.
const TextCollation = "LOGTEXT"

var registerOnce sync.Once

// driverFor returns the registered driver name for a collation mode.
func driverFor(c Collation) (string, error) {
	registerOnce.Do(func() {
		registerDriver(driverFolded, CollationFolded)
		registerDriver(driverBinary, CollationBinary)
	})

	switch c {
	case CollationFolded:
		return driverFolded, nil
	case CollationBinary:
		return driverBinary, nil
	default:
		return "", fmt.Errorf("unknown collation %v", c)
	}
}

// registerDriver registers a sqlite3 driver whose connections carry the
// case-fold functions and the LOGTEXT collation of mode c.
func registerDriver(name string, c Collation) {
	sql.Register(name, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return installFunctions(conn, c)
		},
	})
}

// installFunctions installs lower, upper, like and the collations on one
// connection.
//
// The log's text columns are declared COLLATE LOGTEXT, so c decides how
// every comparison and index on them orders strings. SQLite's own BINARY
// cannot be replaced for that: plain comparisons never look it up.
func installFunctions(conn *sqlite3.SQLiteConn, c Collation) error {
	if err := conn.RegisterFunc("lower", sqlLower, true); err != nil {
		return fmt.Errorf("register lower: %w", err)
	}
	if err := conn.RegisterFunc("upper", sqlUpper, true); err != nil {
		return fmt.Errorf("register upper: %w", err)
	}
	if err := conn.RegisterFunc("like", sqlLike, true); err != nil {
		return fmt.Errorf("register like: %w", err)
	}

	for _, name := range []string{"NOCASE", "FOLD"} {
		if err := conn.RegisterCollation(name, casefold.Compare); err != nil {
			return fmt.Errorf("register collation %s: %w", name, err)
		}
	}

	text := casefold.Compare
	if c == CollationBinary {
		text = strings.Compare
	}
	if err := conn.RegisterCollation(TextCollation, text); err != nil {
		return fmt.Errorf("register collation %s: %w", TextCollation, err)
	}

	return nil
}

// sqlLower is lower(X). lower(NULL) is NULL; other non-text values are
// lowered as their text form.
func sqlLower(v any) any {
	if isNull(v) {
		return nil
	}
	return casefold.Lower(sqlText(v))
}

// sqlUpper is upper(X), with the same NULL handling as sqlLower.
func sqlUpper(v any) any {
	if isNull(v) {
		return nil
	}
	return casefold.Upper(sqlText(v))
}

// sqlLike is the two-argument like(Y, X) that SQLite calls for "X LIKE Y".
// An absent text or pattern never matches.
func sqlLike(pattern, text any) bool {
	if isNull(pattern) || isNull(text) {
		return false
	}
	return casefold.Match(sqlText(pattern), sqlText(text))
}

// isNull reports whether a function argument is SQL NULL. The driver hands
// NULL to an any parameter as a nil []byte.
func isNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case []byte:
		return x == nil
	default:
		return false
	}
}

// sqlText renders a SQLite value as text.
func sqlText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
