package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/backlog/internal/command"
	"github.com/roach88/backlog/internal/render"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	storeFlags
	Num         int
	Debug       bool
	ServerTime  bool
	SelfMessage bool
	UTC         bool
}

// ReplayResult is the JSON payload of a replay.
type ReplayResult struct {
	Target    string          `json:"target"`
	Requested int             `json:"requested"`
	RowCount  int             `json:"row_count"`
	Rows      []render.Record `json:"rows"`
}

// NewBacklogCommand creates the replay command. It prints the PRIVMSG
// lines the backlog module would send a client.
func NewBacklogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:     "replay <target>",
		Aliases: []string{"backlog"},
		Short:   "Replay the latest lines of a channel or query",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, rootOpts, opts, args[0])
		},
	}

	opts.storeFlags.register(cmd)
	cmd.Flags().IntVarP(&opts.Num, "num", "n", command.DefaultNum, "number of lines")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "report how many lines were found")
	cmd.Flags().BoolVar(&opts.ServerTime, "server-time", false, "render for a client with server-time")
	cmd.Flags().BoolVar(&opts.SelfMessage, "self-message", false, "render for a client with self-message")
	cmd.Flags().BoolVar(&opts.UTC, "utc", false, "stamp lines in UTC instead of local time")

	return cmd
}

func runReplay(cmd *cobra.Command, rootOpts *RootOptions, opts *ReplayOptions, target string) error {
	formatter := newFormatter(cmd, rootOpts)

	if opts.Num <= 0 {
		return formatter.Fail(ExitFailure, CodeInvalidInput,
			fmt.Sprintf("num must be a positive integer, got %d", opts.Num), nil)
	}

	cfg, st, err := openLog(formatter, rootOpts, opts.storeFlags)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.Backlog(cmd.Context(), target, opts.Num)
	if err != nil {
		return formatter.Fail(ExitCommandError, CodeStore, "read backlog: "+err.Error(), nil)
	}

	viewer := render.Viewer{
		Nick:        cfg.SelfNick,
		SelfMessage: opts.SelfMessage,
		ServerTime:  opts.ServerTime,
		Loc:         time.Local,
	}
	if opts.UTC {
		viewer.Loc = time.UTC
	}

	var lines []string
	if opts.Debug {
		lines = append(lines, fmt.Sprintf("Debug: %d of %d lines for %s", len(rows), opts.Num, target))
	}
	for _, row := range rows {
		lines = append(lines, render.Backlog(target, row, viewer))
	}

	return formatter.Result(ReplayResult{
		Target:    target,
		Requested: opts.Num,
		RowCount:  len(rows),
		Rows:      render.Records(rows, cfg.SelfNick),
	}, lines)
}
