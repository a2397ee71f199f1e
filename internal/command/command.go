// Package command parses the module commands of the backlog service.
//
// The command set is closed: Help, Backlog and Search. Callers dispatch
// with a type switch over the value returned by Parse.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Defaults for optional arguments.
const (
	DefaultNum   = 10
	DefaultLimit = 10
)

// Command is one parsed module command.
type Command interface {
	command()
	Name() string
}

// Help lists the available commands.
type Help struct{}

// Backlog replays the last Num lines of Target to the client.
type Backlog struct {
	Target string
	Num    int
	Debug  bool
}

// Search runs a query against the log.
type Search struct {
	Query string
	Limit int
	Debug bool
}

func (Help) command()    {}
func (Backlog) command() {}
func (Search) command()  {}

func (Help) Name() string    { return "help" }
func (Backlog) Name() string { return "backlog" }
func (Search) Name() string  { return "search" }

// UnknownCommandError is returned for a command word that names no command.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// UsageError is returned when a known command gets the wrong arguments.
type UsageError struct {
	Command string
	Usage   string
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s: %s", e.Usage, e.Reason)
}

// signature describes one command for binding and help output.
type signature struct {
	name   string
	params []string
	// number of leading params that must be supplied
	required int
	usage    string
	doc      string
}

var signatures = []signature{
	{
		name:  "help",
		usage: "help",
		doc:   "Show this help",
	},
	{
		name:     "backlog",
		params:   []string{"target", "num", "debug"},
		required: 1,
		usage:    "backlog <target> [num=10] [debug=false]",
		doc:      "Show backlog for a channel or nick",
	},
	{
		name:     "search",
		params:   []string{"query", "limit", "debug"},
		required: 1,
		usage:    "search <query> [limit=10] [debug=false]",
		doc:      "Search through history (search help shows the query syntax)",
	},
}

func lookup(name string) (signature, bool) {
	for _, sig := range signatures {
		if strings.EqualFold(sig.name, name) {
			return sig, true
		}
	}
	return signature{}, false
}

// Usage returns one "usage: description" line per command.
func Usage() []string {
	lines := make([]string, 0, len(signatures))
	for _, sig := range signatures {
		lines = append(lines, sig.usage+": "+sig.doc)
	}
	return lines
}

// Parse parses a module command line.
//
// Errors are *SyntaxError, *UnknownCommandError, *UsageError or
// ErrNoCommand.
func Parse(line string) (Command, error) {
	args, err := Split(line)
	if err != nil {
		return nil, err
	}

	sig, ok := lookup(args.Name)
	if !ok {
		return nil, &UnknownCommandError{Name: args.Name}
	}

	values, err := sig.bind(args)
	if err != nil {
		return nil, err
	}

	switch sig.name {
	case "help":
		return Help{}, nil

	case "backlog":
		cmd := Backlog{Target: values["target"], Num: DefaultNum}
		if v, ok := values["num"]; ok {
			if cmd.Num, err = positive(v); err != nil {
				return nil, sig.usageError("num %s", err)
			}
		}
		if v, ok := values["debug"]; ok {
			if cmd.Debug, err = parseBool(v); err != nil {
				return nil, sig.usageError("debug %s", err)
			}
		}
		return cmd, nil

	case "search":
		cmd := Search{Query: values["query"], Limit: DefaultLimit}
		if v, ok := values["limit"]; ok {
			if cmd.Limit, err = positive(v); err != nil {
				return nil, sig.usageError("limit %s", err)
			}
		}
		if v, ok := values["debug"]; ok {
			if cmd.Debug, err = parseBool(v); err != nil {
				return nil, sig.usageError("debug %s", err)
			}
		}
		return cmd, nil
	}

	return nil, &UnknownCommandError{Name: args.Name}
}

// bind assigns positional and keyword arguments to parameter names.
func (sig signature) bind(args Args) (map[string]string, error) {
	if len(args.Positional) > len(sig.params) {
		return nil, sig.usageError("takes at most %d arguments, got %d", len(sig.params), len(args.Positional))
	}

	values := make(map[string]string, len(sig.params))
	for i, v := range args.Positional {
		values[sig.params[i]] = v
	}

	for _, kw := range args.Keywords {
		name := strings.ToLower(kw.Name)
		if !contains(sig.params, name) {
			return nil, sig.usageError("unexpected argument %q", kw.Name)
		}
		if _, dup := values[name]; dup {
			return nil, sig.usageError("%s given more than once", name)
		}
		values[name] = kw.Value
	}

	for _, name := range sig.params[:sig.required] {
		if _, ok := values[name]; !ok {
			return nil, sig.usageError("missing %s", name)
		}
	}
	return values, nil
}

func (sig signature) usageError(format string, args ...any) *UsageError {
	return &UsageError{
		Command: sig.name,
		Usage:   sig.usage,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// Diagnostic renders a Parse error as the single line shown to the user.
func Diagnostic(err error) string {
	var (
		syntax  *SyntaxError
		unknown *UnknownCommandError
		usage   *UsageError
	)
	switch {
	case errors.Is(err, ErrNoCommand):
		return "No command"
	case errors.As(err, &syntax):
		return "Invalid command: " + syntax.Error()
	case errors.As(err, &unknown):
		return "Invalid command " + unknown.Name
	case errors.As(err, &usage):
		return fmt.Sprintf("Usage: %s (%s)", usage.Usage, usage.Reason)
	default:
		return err.Error()
	}
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("must be a positive integer, got %q", s)
	}
	return n, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("must be true or false, got %q", s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
