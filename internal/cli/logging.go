package cli

import (
	"io"
	"log/slog"
)

// setupLogging installs a text handler on w as the default logger.
// --verbose always wins over the configured level.
func setupLogging(w io.Writer, verbose bool, level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
