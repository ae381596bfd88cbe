package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// New creates a logger writing to w, as JSON or as text.
func New(w io.Writer, jsonOutput bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init creates a stderr logger, sets it as the slog default and returns it.
// Callers pass jsonOutput=true when the tree itself is written to stdout.
func Init(jsonOutput bool, level slog.Level) *slog.Logger {
	logger := New(os.Stderr, jsonOutput, level)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRunID returns a fresh identifier for one resolution run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID returns a logger that tags every record with run_id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}
