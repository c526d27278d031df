// Package logger configures the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. Level defaults to info;
// VOUCH_LOG_LEVEL=debug turns on per-event skip logging.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("VOUCH_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
