package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at link time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			return formatter.Result(map[string]string{
				"version": Version,
				"go":      runtime.Version(),
			}, []string{"backlog " + Version + " (" + runtime.Version() + ")"})
		},
	}
}
