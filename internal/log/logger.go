// Package log configures structured logging for the binaries. Services log
// through the default slog logger; this package only sets it up and tags
// each binary with a component attribute.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs a text handler at the given level as the process default
// logger, tagged with the component name. Returns the logger for callers
// that want to derive from it.
func Setup(component, level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler).With("component", component)
	slog.SetDefault(logger)
	return logger
}
