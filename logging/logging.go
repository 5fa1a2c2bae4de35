// Package logging constructs the application logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates a text logger writing to stderr, keeping stdout free for
// the game transcript.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
