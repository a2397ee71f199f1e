package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/backlog/internal/config"
	"github.com/roach88/backlog/internal/store"
)

// storeFlags are the overrides shared by every command that opens the log.
type storeFlags struct {
	DB   string
	Nick string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.DB, "db", "", "path to the log database (overrides db-path)")
	cmd.Flags().StringVar(&f.Nick, "nick", "", "nick own messages are shown under (overrides self-nick)")
}

// loadConfig resolves the configuration and applies the flag overrides.
func loadConfig(rootOpts *RootOptions, f storeFlags) (config.Config, error) {
	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if f.DB != "" {
		cfg.DBPath = f.DB
	}
	if f.Nick != "" {
		cfg.SelfNick = f.Nick
	}
	return cfg, nil
}

// openLog loads the configuration and opens the store it names. Failures
// are reported through formatter as command errors.
func openLog(formatter *OutputFormatter, rootOpts *RootOptions, f storeFlags) (config.Config, *store.Store, error) {
	cfg, err := loadConfig(rootOpts, f)
	if err != nil {
		return cfg, nil, formatter.Fail(ExitCommandError, CodeConfig, err.Error(), nil)
	}
	st, err := openStore(formatter, cfg)
	return cfg, st, err
}

// openStore opens cfg's database, creating its directory if needed.
func openStore(formatter *OutputFormatter, cfg config.Config) (*store.Store, error) {
	if cfg.ConfigPath != "" {
		formatter.VerboseLog("Using config %s", cfg.ConfigPath)
	}
	details := map[string]string{"db": cfg.DBPath}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, formatter.Fail(ExitCommandError, CodeStore, err.Error(), details)
	}
	formatter.VerboseLog("Opening log %s (collation %s)", cfg.DBPath, cfg.Collation)
	st, err := store.Open(cfg.DBPath, store.WithCollation(cfg.StoreCollation()))
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, CodeStore, err.Error(), details)
	}
	return st, nil
}

// newFormatter builds the formatter for cmd's writers.
func newFormatter(cmd *cobra.Command, rootOpts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}
}
