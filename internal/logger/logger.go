package logger

import (
	"io"
	"log/slog"
)

// New returns a JSON slog.Logger for the given service name, writing to w.
// Tests hand in io.Discard; the entrypoints hand in os.Stdout.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}
