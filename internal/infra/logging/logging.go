// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// SetupJSON installs a JSON slog handler writing to stdout as the default
// logger and returns it for callers that want an explicit handle.
func SetupJSON(level slog.Level) *slog.Logger {
	return setup(os.Stdout, level)
}

func setup(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(logger)

	return logger
}
