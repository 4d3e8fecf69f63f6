// Package logger builds the slog logger used for debug output (git commands, timings).
package logger

import (
	"io"
	"log/slog"
	"time"
)

// New returns a text logger writing to w. Debug records are emitted only when verbose is set.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	if verbose {
		level.Set(slog.LevelDebug)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Timed logs the duration of an operation at debug level when the returned func runs.
func Timed(l *slog.Logger, op string, attrs ...any) func() {
	start := time.Now()
	return func() {
		OrDiscard(l).Debug(op, append(attrs, "elapsed", time.Since(start))...)
	}
}
