package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// SQLite DSN parameters applied to every connection.
const (
	defaultBusyTimeout = "5000"
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
)

// Collation selects how the store compares strings by default.
type Collation int

const (
	// CollationFolded orders the log's text columns with the Unicode
	// case-fold comparator. Equality, ordering and indexes on every text
	// column become case-insensitive.
	CollationFolded Collation = iota

	// CollationBinary orders them byte-wise. Only lower(), LIKE, NOCASE
	// and FOLD fold.
	CollationBinary
)

// String returns the configuration name of the collation.
func (c Collation) String() string {
	switch c {
	case CollationFolded:
		return "folded"
	case CollationBinary:
		return "binary"
	default:
		return fmt.Sprintf("Collation(%d)", int(c))
	}
}

// ParseCollation maps a configuration name to a Collation.
func ParseCollation(name string) (Collation, error) {
	switch name {
	case "", "folded":
		return CollationFolded, nil
	case "binary":
		return CollationBinary, nil
	default:
		return 0, fmt.Errorf("unknown collation %q: must be folded or binary", name)
	}
}

// Store is the message log of one user.
type Store struct {
	db        *sql.DB
	clock     Clock
	collation Collation

	mu   sync.Mutex // guards last
	last time.Time  // latest time written, for monotonic stamping
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithClock overrides the clock used to stamp entries without a time.
func WithClock(c Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithCollation selects the default collation of the store.
func WithCollation(c Collation) Option {
	return func(s *Store) {
		s.collation = c
	}
}

// Open creates or opens the log database at path.
//
// The case-fold functions are installed on the connection and the schema
// migrations are applied before Open returns. Any failure here is fatal
// for the log: the caller gets no Store.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		clock:     SystemClock{},
		collation: CollationFolded,
	}
	for _, opt := range opts {
		opt(s)
	}

	driver, err := driverFor(s.collation)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works (this also runs the ConnectHook)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: a single writer, and every statement sees the
	// functions and collations installed by the hook.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s.db = db

	if err := s.syncCollation(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	last, err := s.latestTime(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	s.last = last

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Collation reports the collation the store was opened with.
func (s *Store) Collation() Collation {
	return s.collation
}

// buildDSN appends the connection parameters to path.
func buildDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)

	return path + "?" + params.Encode()
}

// latestTime returns the newest stored time, or the zero time for an empty log.
func (s *Store) latestTime(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX("time") FROM "log"`).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("read latest time: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, nil
	}

	t, err := parseStoredTime(raw.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("read latest time: %w", err)
	}
	return t, nil
}

// syncCollation rebuilds the text indexes when the database was last
// opened with a different collation, then records the current one.
// Indexes ordered by the other comparator would make lookups disagree
// with table scans.
func (s *Store) syncCollation(ctx context.Context) error {
	var prev string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'collation'`).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read collation: %w", err)
	}

	cur := s.collation.String()
	if prev == cur {
		return nil
	}
	if prev != "" {
		slog.Info("collation changed, rebuilding log indexes", "from", prev, "to", cur)
		if _, err := s.db.ExecContext(ctx, "REINDEX "+TextCollation); err != nil {
			return fmt.Errorf("reindex %s: %w", TextCollation, err)
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO store_meta (key, value) VALUES ('collation', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, cur)
	if err != nil {
		return fmt.Errorf("record collation: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
