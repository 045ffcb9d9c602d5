// Package debuglog writes the session's structured debug log and reads it
// back for display. The interactive session owns the terminal in raw mode,
// so nothing is ever logged to stderr; everything goes to a JSONL file.
package debuglog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Open returns a logger appending JSON lines to path. An empty path yields
// a logger that discards everything. The returned close function is never
// nil.
func Open(path string) (*slog.Logger, func() error, error) {
	if path == "" {
		return Discard(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create debug log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	return New(f).With(slog.Int("pid", os.Getpid())), f.Close, nil
}

// New returns a debug-level JSON logger writing to w.
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
