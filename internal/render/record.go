package render

import (
	"time"

	"github.com/roach88/backlog/internal/store"
)

// Record is the JSON form of a log row, shared by the HTTP API and the
// CLI's json output.
type Record struct {
	Time    string `json:"time"`
	Who     string `json:"who"`
	Own     bool   `json:"own"`
	Where   string `json:"where"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// Records converts rows, resolving own messages to self. The result is
// never nil so it encodes as [] when empty.
func Records(rows []store.Row, self string) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			Time:    r.Time.UTC().Format(time.RFC3339Nano),
			Who:     r.Who.Resolve(self),
			Own:     r.Who.IsOwn(),
			Where:   r.Where,
			Type:    r.Type,
			Message: r.Message,
		})
	}
	return out
}
