package engine

import "sync"

// Host is the bouncer side of an event: who the user is, what their
// client supports, and where output goes.
type Host interface {
	Nick() string
	HasSelfMessage() bool
	HasServerTime() bool

	PutUser(line string)   // protocol line to the user's clients
	PutModule(line string) // notice from the module
	PutIRC(line string)    // line to the upstream server
	PutClient(line string) // protocol line to the client that sent the event
}

// Channel names an output destination.
type Channel string

const (
	ToUser   Channel = "user"
	ToModule Channel = "module"
	ToIRC    Channel = "irc"
	ToClient Channel = "client"
)

// Output is one line of output and its destination.
type Output struct {
	To   Channel `json:"to"`
	Line string  `json:"line"`
}

// BufferHost is a Host that records its output.
//
// Thread-safety: BufferHost is safe for concurrent use, so tests can read
// it while Run writes.
type BufferHost struct {
	Self        string
	SelfMessage bool
	ServerTime  bool

	mu  sync.Mutex
	out []Output
}

// NewBufferHost creates a BufferHost for a user called nick.
func NewBufferHost(nick string) *BufferHost {
	return &BufferHost{Self: nick}
}

func (h *BufferHost) Nick() string         { return h.Self }
func (h *BufferHost) HasSelfMessage() bool { return h.SelfMessage }
func (h *BufferHost) HasServerTime() bool  { return h.ServerTime }

func (h *BufferHost) PutUser(line string)   { h.put(ToUser, line) }
func (h *BufferHost) PutModule(line string) { h.put(ToModule, line) }
func (h *BufferHost) PutIRC(line string)    { h.put(ToIRC, line) }
func (h *BufferHost) PutClient(line string) { h.put(ToClient, line) }

func (h *BufferHost) put(to Channel, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.out = append(h.out, Output{To: to, Line: line})
}

// Outputs returns a copy of everything written so far.
func (h *BufferHost) Outputs() []Output {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Output(nil), h.out...)
}

// Lines returns the lines written to one channel.
func (h *BufferHost) Lines(to Channel) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var lines []string
	for _, o := range h.out {
		if o.To == to {
			lines = append(lines, o.Line)
		}
	}
	return lines
}

// Reset discards recorded output.
func (h *BufferHost) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.out = nil
}
