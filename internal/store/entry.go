package store

import (
	"fmt"
	"time"
)

// Stored time layouts. Times are written in UTC with milliseconds so that
// text order is time order; the read layout also accepts rows without a
// fractional part.
const (
	timeLayout     = "2006-01-02 15:04:05.000"
	readTimeLayout = "2006-01-02 15:04:05"
)

// Author identifies who wrote a logged line.
//
// The zero value is Own: the user who owns the log. It is stored as a
// NULL who and only becomes a nick when a row is rendered.
type Author struct {
	nick  string
	other bool
}

// Own is the author of the log owner's own messages.
func Own() Author {
	return Author{}
}

// Other is a named author.
func Other(nick string) Author {
	return Author{nick: nick, other: true}
}

// IsOwn reports whether the author is the log owner.
func (a Author) IsOwn() bool {
	return !a.other
}

// Nick returns the author's nick, or "" for Own.
func (a Author) Nick() string {
	return a.nick
}

// Resolve returns the nick to display for the author, using self for Own.
func (a Author) Resolve(self string) string {
	if a.IsOwn() {
		return self
	}
	return a.nick
}

// String renders the author for logs and debug output.
func (a Author) String() string {
	if a.IsOwn() {
		return "<own>"
	}
	return a.nick
}

// value maps the author to the stored who column.
func (a Author) value() any {
	if a.IsOwn() {
		return nil
	}
	return a.nick
}

// Entry is one logged line.
type Entry struct {
	// Time of the line. The zero value means "now" by the store's clock.
	Time time.Time

	Who   Author
	Where string // channel name or query partner nick

	Message string

	// Type is empty for a plain message, or the CTCP type ("ACTION").
	Type string
}

// validate checks the fields the schema requires.
func (e Entry) validate() error {
	if e.Where == "" {
		return fmt.Errorf("entry has empty where")
	}
	if !e.Who.IsOwn() && e.Who.Nick() == "" {
		return fmt.Errorf("entry has empty author nick")
	}
	return nil
}

// Row is a stored entry as read back from the log.
type Row struct {
	Time    time.Time
	Who     Author
	Where   string
	Message string
	Type    string
}

// formatStoredTime renders t in the stored text layout.
func formatStoredTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseStoredTime parses a stored time value.
func parseStoredTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(readTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// timeFromColumn converts a scanned time column to a time.Time.
func timeFromColumn(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseStoredTime(x)
	case []byte:
		return parseStoredTime(string(x))
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case nil:
		return time.Time{}, fmt.Errorf("time is NULL")
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", v)
	}
}
