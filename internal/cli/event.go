package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/backlog/internal/away"
	"github.com/roach88/backlog/internal/engine"
)

// EventOptions holds flags for the log and module commands.
type EventOptions struct {
	storeFlags
	From        string
	Target      string
	Network     string
	ClientID    string
	ClientHost  string
	Module      string
	SelfMessage bool
	ServerTime  bool
}

// EventResult is the JSON payload of an event run through the engine.
type EventResult struct {
	Event   string          `json:"event"`
	Outputs []engine.Output `json:"outputs"`
}

// NewLogCommand creates the log command, which feeds one bouncer event to
// the module as if the bouncer had delivered it.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{}

	cmd := &cobra.Command{
		Use:   "log <event-type> [text]...",
		Short: "Feed one bouncer event to the module",
		Long: "Feed one bouncer event to the module. Event types are chan_msg,\n" +
			"chan_action, priv_msg, priv_action, user_msg, user_action,\n" +
			"client_login, client_disconnect, irc_connected and user_raw.",
		Example: "  backlog log chan_msg --from bob --target '#go' hello there\n" +
			"  backlog log user_msg --target '#go' '!bl 5'",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := engine.ParseEventType(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return runEvent(cmd, rootOpts, opts, typ, strings.Join(args[1:], " "))
		},
	}

	opts.storeFlags.register(cmd)
	cmd.Flags().StringVar(&opts.From, "from", "", "sender of channel and private messages")
	cmd.Flags().StringVar(&opts.Target, "target", "", "channel or peer")
	cmd.Flags().StringVar(&opts.Network, "network", "", "network name")
	cmd.Flags().StringVar(&opts.ClientID, "client", "", "client id for client events")
	cmd.Flags().StringVar(&opts.ClientHost, "client-host", "", "client host for client events")
	cmd.Flags().BoolVar(&opts.SelfMessage, "self-message", false, "client has self-message")
	cmd.Flags().BoolVar(&opts.ServerTime, "server-time", false, "client has server-time")

	return cmd
}

// NewModuleCommand creates the module command, which runs one module
// command line and prints what the module answers.
func NewModuleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{}

	cmd := &cobra.Command{
		Use:   "module <command-line>...",
		Short: "Run a module command",
		Example: "  backlog module 'search (who = bob) --limit=5'\n" +
			"  backlog module --module clientaway autoaway on",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvent(cmd, rootOpts, opts, engine.EventModCommand, strings.Join(args, " "))
		},
	}

	opts.storeFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Module, "module", engine.ModuleBacklog, "module the command is addressed to")
	cmd.Flags().StringVar(&opts.Network, "network", "", "network name")
	cmd.Flags().BoolVar(&opts.SelfMessage, "self-message", false, "client has self-message")
	cmd.Flags().BoolVar(&opts.ServerTime, "server-time", false, "client has server-time")
	// Module command lines use "--" for keywords of their own.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runEvent(cmd *cobra.Command, rootOpts *RootOptions, opts *EventOptions, typ engine.EventType, text string) error {
	formatter := newFormatter(cmd, rootOpts)

	cfg, st, err := openLog(formatter, rootOpts, opts.storeFlags)
	if err != nil {
		return err
	}
	defer st.Close()

	host := engine.NewBufferHost(cfg.SelfNick)
	host.SelfMessage = opts.SelfMessage
	host.ServerTime = opts.ServerTime

	eng := engine.New(st, engine.WithAway(away.New(away.Config{DefaultReason: cfg.AwayReason}, st)))
	ev := engine.Event{
		Type:    typ,
		Nick:    opts.From,
		Target:  opts.Target,
		Text:    text,
		Module:  opts.Module,
		Network: opts.Network,
		Client:  away.Client{ID: opts.ClientID, Host: opts.ClientHost, Network: opts.Network},
		Host:    host,
	}

	formatter.VerboseLog("Handling %s event", typ)
	handleErr := eng.Handle(cmd.Context(), ev)

	outputs := host.Outputs()
	if handleErr != nil {
		details := map[string]any{"outputs": outputs}
		var rtErr *engine.RuntimeError
		if errors.As(handleErr, &rtErr) {
			details["code"] = string(rtErr.Code)
		}
		for _, out := range outputs {
			fmt.Fprintln(formatter.GetErrWriter(), formatOutput(out))
		}
		return formatter.Fail(ExitFailure, CodeEvent, handleErr.Error(), details)
	}

	lines := make([]string, 0, len(outputs))
	for _, out := range outputs {
		lines = append(lines, formatOutput(out))
	}
	if outputs == nil {
		outputs = []engine.Output{}
	}
	return formatter.Result(EventResult{Event: typ.String(), Outputs: outputs}, lines)
}

// formatOutput prefixes a line with the channel it was sent on.
func formatOutput(out engine.Output) string {
	return fmt.Sprintf("%s: %s", out.To, out.Line)
}
