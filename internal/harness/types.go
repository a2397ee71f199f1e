package harness

import "github.com/roach88/backlog/internal/engine"

// TraceEvent records one flow step as the engine handled it.
type TraceEvent struct {
	Seq     int64           `json:"seq"`
	Event   string          `json:"event"`
	Target  string          `json:"target,omitempty"`
	Text    string          `json:"text,omitempty"`
	Outputs []engine.Output `json:"outputs,omitempty"`
	Error   string          `json:"error,omitempty"` // runtime error code
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace has one entry per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a handled step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Outputs returns every line written to channel to, across the trace.
func (r *Result) Outputs(to engine.Channel) []string {
	var lines []string
	for _, ev := range r.Trace {
		for _, out := range ev.Outputs {
			if out.To == to {
				lines = append(lines, out.Line)
			}
		}
	}
	return lines
}
