// Package logger constructs the application's structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger initializes a new slog logger with the given level and format.
// Format "json" selects the JSON handler; anything else falls back to text.
// A nil output defaults to stderr.
func NewLogger(level slog.Level, format string, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
