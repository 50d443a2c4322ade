package config

import (
	"fmt"
	"io"
	"log/slog"
)

// NewLogger builds a slog.Logger for the serve path from the logging
// section of the config. CLI commands keep using plain print helpers.
func NewLogger(w io.Writer, lc LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch lc.Level {
	case "", "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", lc.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch lc.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s (must be text or json)", lc.Format)
	}
}
