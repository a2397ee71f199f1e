package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/backlog/internal/command"
	"github.com/roach88/backlog/internal/querylang"
)

// NewGrammarCommand creates the grammar command, which prints the search
// language and the module command reference without opening the log.
func NewGrammarCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grammar",
		Short: "Describe the search language and module commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			grammar := querylang.Describe()
			usage := command.Usage()

			lines := descriptionLines(grammar)
			lines = append(lines, "")
			lines = append(lines, usage...)
			return formatter.Result(map[string]any{
				"grammar":  grammar,
				"commands": usage,
			}, lines)
		},
	}
}
