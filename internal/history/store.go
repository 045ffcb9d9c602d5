// Package history persists submitted prompt entries across sessions and
// offers them to the editor, the picker and the history command.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is one submitted prompt.
type Entry struct {
	ID        int64
	Text      string
	CWD       string
	CreatedAt time.Time
}

// Store is the interface for entry persistence. List and Search return
// entries oldest first.
type Store interface {
	Add(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Search(ctx context.Context, pattern string, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

// Config holds history storage configuration.
type Config struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path,omitempty"`     // empty means the XDG data dir
	MaxEntries int    `mapstructure:"max_entries" yaml:"max_entries"` // 0 keeps everything
	Picker     string `mapstructure:"picker" yaml:"picker"`           // external picker command, e.g. "fzf"
}

// DefaultConfig returns the default history configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		MaxEntries: 5000,
		Picker:     "fzf",
	}
}

// GetDataDir returns the XDG data directory for term-chat.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "term-chat"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "term-chat"), nil
}

// GetDBPath returns the path of the history database for cfg.
func GetDBPath(cfg Config) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "history.db"), nil
}

// NewStore creates a Store for cfg. With history disabled entries live only
// as long as the process.
func NewStore(cfg Config) (Store, error) {
	if !cfg.Enabled {
		return NewMemoryStore(cfg.MaxEntries), nil
	}
	return NewSQLiteStore(cfg)
}

// Texts returns the text of each entry.
func Texts(entries []Entry) []string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return texts
}
