package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process logger at the requested level, installs it as
// the slog default, and returns it. Components derive their own loggers
// from it with With("component", ...).
func Setup(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// parseLevel maps a level name to a slog level. Unknown or empty strings
// fall back to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
