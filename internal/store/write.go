package store

import (
	"context"
	"fmt"
	"time"
)

// Append logs one entry.
//
// An entry without a Time is stamped by the store's clock. Stamped times
// never go backwards: if the clock reads earlier than the newest stored
// line, the newer time is reused, so insertion order and time order agree.
// Explicit times are stored as given.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := e.Time
	if t.IsZero() {
		t = s.clock.Now()
		if t.Before(s.last) {
			t = s.last
		}
	}
	// Stored with millisecond precision.
	t = t.UTC().Truncate(time.Millisecond)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO "log" ("time", "who", "where", "message", "type")
		VALUES (?, ?, ?, ?, ?)
	`,
		formatStoredTime(t),
		e.Who.value(),
		e.Where,
		e.Message,
		nullIfEmpty(e.Type),
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	if t.After(s.last) {
		s.last = t
	}
	return nil
}

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
