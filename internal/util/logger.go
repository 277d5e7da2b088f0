// Package util holds small cross-cutting helpers.
package util

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. Level is one of debug, info,
// warn, error (case-insensitive, defaulting to info); json selects the
// JSON handler over text.
func NewLogger(level string, json bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
