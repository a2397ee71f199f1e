package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/backlog/internal/engine"
	"github.com/roach88/backlog/internal/store"
)

// Scenario defines an end-to-end test: a log to start from, a flow of
// bouncer events fed to the engine, and checks on what the engine wrote
// back and what ended up in the log.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Self is the user's nick. Defaults to "me".
	Self string `yaml:"self,omitempty"`

	// Start is the RFC 3339 time of the first logged line. Defaults to
	// DefaultStart.
	Start string `yaml:"start,omitempty"`

	// Step is how far the clock moves per logged line. Defaults to one minute.
	Step string `yaml:"step,omitempty"`

	// Collation is "folded" (default) or "binary".
	Collation string `yaml:"collation,omitempty"`

	// Client describes the capabilities of the client events come from.
	Client ClientCaps `yaml:"client,omitempty"`

	// Setup lines are written straight to the log before the flow.
	Setup []LogLine `yaml:"setup,omitempty"`

	// Flow contains the events handed to the engine, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the collected output and the final log.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ClientCaps are the client capabilities the engine renders for.
type ClientCaps struct {
	SelfMessage bool `yaml:"self_message"`
	ServerTime  bool `yaml:"server_time"`
}

// LogLine is one pre-existing log entry. An empty Who is the user.
type LogLine struct {
	Who     string `yaml:"who,omitempty"`
	Where   string `yaml:"where"`
	Message string `yaml:"message"`
	Type    string `yaml:"type,omitempty"`
}

// FlowStep is one bouncer event.
type FlowStep struct {
	// Event is the event type name, e.g. "chan_msg" or "mod_command".
	Event string `yaml:"event"`

	Nick       string `yaml:"nick,omitempty"`
	Target     string `yaml:"target,omitempty"`
	Text       string `yaml:"text,omitempty"`
	Module     string `yaml:"module,omitempty"`
	Network    string `yaml:"network,omitempty"`
	ClientID   string `yaml:"client,omitempty"`
	ClientHost string `yaml:"client_host,omitempty"`

	// Expect checks the output of this step only.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected output of one step. A nil list is
// not checked; an empty list demands no output on that channel.
type ExpectClause struct {
	// Error is the expected runtime error code; empty means success.
	Error string `yaml:"error,omitempty"`

	User   []string `yaml:"user,omitempty"`
	Module []string `yaml:"module,omitempty"`
	IRC    []string `yaml:"irc,omitempty"`
	Client []string `yaml:"client,omitempty"`
}

// Assertion validates collected output or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_contains": Line was written to Channel
	// - "output_order": Lines were written to Channel in this order
	// - "output_count": Channel received exactly Count lines
	// - "final_state": exactly one row of Table matches Where and Expect
	// - "row_count": Table has exactly Count rows matching Where
	Type string `yaml:"type"`

	// Channel is the output channel (user, module, irc, client).
	Channel string `yaml:"channel,omitempty"`

	Line  string   `yaml:"line,omitempty"`
	Lines []string `yaml:"lines,omitempty"`

	// Table is "log" or "settings". Defaults to "log".
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters; a null value matches SQL NULL.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (subset match).
	Expect map[string]any `yaml:"expect,omitempty"`

	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputOrder    = "output_order"
	AssertOutputCount    = "output_count"
	AssertFinalState     = "final_state"
	AssertRowCount       = "row_count"
)

// Scenario defaults.
const (
	DefaultSelf = "me"
	DefaultStep = time.Minute
)

// DefaultStart is the clock start of scenarios that set none.
var DefaultStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// settings resolves the defaults of s.
func (s *Scenario) settings() (self string, start time.Time, step time.Duration, col store.Collation, err error) {
	self = s.Self
	if self == "" {
		self = DefaultSelf
	}

	start = DefaultStart
	if s.Start != "" {
		if start, err = time.Parse(time.RFC3339, s.Start); err != nil {
			return self, start, step, col, fmt.Errorf("start: %w", err)
		}
	}

	step = DefaultStep
	if s.Step != "" {
		if step, err = time.ParseDuration(s.Step); err != nil {
			return self, start, step, col, fmt.Errorf("step: %w", err)
		}
	}

	col, err = store.ParseCollation(s.Collation)
	if err != nil {
		return self, start, step, col, err
	}
	return self, start, step, col, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if _, _, _, _, err := s.settings(); err != nil {
		return err
	}

	for i, line := range s.Setup {
		if line.Where == "" {
			return fmt.Errorf("setup[%d]: where is required", i)
		}
	}

	for i, step := range s.Flow {
		if step.Event == "" {
			return fmt.Errorf("flow[%d]: event is required", i)
		}
		if _, err := engine.ParseEventType(step.Event); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains:
		if a.Channel == "" || a.Line == "" {
			return fmt.Errorf("assertions[%d]: channel and line are required for output_contains", index)
		}
	case AssertOutputOrder:
		if a.Channel == "" || len(a.Lines) == 0 {
			return fmt.Errorf("assertions[%d]: channel and lines are required for output_order", index)
		}
	case AssertOutputCount:
		if a.Channel == "" {
			return fmt.Errorf("assertions[%d]: channel is required for output_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for output_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Table != "" && !allowedTables[a.Table] {
		return fmt.Errorf("assertions[%d]: unknown table %q", index, a.Table)
	}

	return nil
}
