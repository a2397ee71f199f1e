package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/backlog/internal/engine"
	"github.com/roach88/backlog/internal/querylang"
	"github.com/roach88/backlog/internal/render"
	"github.com/roach88/backlog/internal/search"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	storeFlags
	Limit int
	Debug bool
	UTC   bool
}

// SearchResult is the JSON payload of a successful search.
type SearchResult struct {
	Query    string          `json:"query"`
	RowCount int             `json:"row_count"`
	Rows     []render.Record `json:"rows"`
	SQL      string          `json:"sql,omitempty"`
	Params   []any           `json:"params,omitempty"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the log",
		Long: "Search the log with the query language. The words of the query\n" +
			"are joined with spaces; 'backlog search help' prints the grammar.",
		Example: "  backlog search who = bob message like '%deploy%'\n" +
			"  backlog search --limit 50 \"where = '#go' date >= 2024-01-01\"",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, rootOpts, opts, strings.Join(args, " "))
		},
	}

	opts.storeFlags.register(cmd)
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum rows (default from default-limit)")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "show the generated SQL and parameters")
	cmd.Flags().BoolVar(&opts.UTC, "utc", false, "show times in UTC instead of local time")

	return cmd
}

func runSearch(cmd *cobra.Command, rootOpts *RootOptions, opts *SearchOptions, query string) error {
	formatter := newFormatter(cmd, rootOpts)

	if search.IsHelp(query) {
		grammar := querylang.Describe()
		return formatter.Result(map[string]string{"grammar": grammar}, descriptionLines(grammar))
	}

	cfg, st, err := openLog(formatter, rootOpts, opts.storeFlags)
	if err != nil {
		return err
	}
	defer st.Close()

	limit := opts.Limit
	if limit == 0 {
		limit = cfg.DefaultLimit
	}
	if limit < 0 {
		return formatter.Fail(ExitFailure, CodeInvalidInput, "limit must be a positive integer", nil)
	}

	formatter.VerboseLog("Searching as %q with limit %d", cfg.SelfNick, limit)
	res, err := search.New(st).Search(cmd.Context(), search.Request{
		Query: query,
		Self:  cfg.SelfNick,
		Limit: limit,
	})
	if err != nil {
		return searchFailure(formatter, err)
	}

	loc := time.Local
	if opts.UTC {
		loc = time.UTC
	}

	var lines []string
	if opts.Debug {
		lines = append(lines, "Debug: "+res.SQL, engine.FormatParams(res.Args))
	}
	if len(res.Rows) == 0 {
		lines = append(lines, "No results")
	}
	for _, row := range res.Rows {
		lines = append(lines, render.SearchIn(row, cfg.SelfNick, loc))
	}

	data := SearchResult{
		Query:    query,
		RowCount: len(res.Rows),
		Rows:     render.Records(res.Rows, cfg.SelfNick),
	}
	if opts.Debug {
		data.SQL = res.SQL
		data.Params = res.Args
	}
	return formatter.Result(data, lines)
}

// searchFailure reports a failed search. Grammar mistakes are the user's;
// a statement the database rejects is reported with the SQL behind it.
func searchFailure(formatter *OutputFormatter, err error) error {
	var execErr *search.ExecError
	if errors.As(err, &execErr) {
		return formatter.Fail(ExitFailure, CodeQueryFailed, "Invalid query "+execErr.SQL, map[string]any{
			"sql":    execErr.SQL,
			"params": engine.FormatParams(execErr.Params),
			"error":  execErr.Err.Error(),
		})
	}
	return formatter.Fail(ExitFailure, CodeInvalidQuery, "Invalid query: "+err.Error(), map[string]string{
		"kind": string(search.Classify(err)),
	})
}

func descriptionLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
