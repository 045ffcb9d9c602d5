package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text TEXT NOT NULL,
    cwd TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
`

// NewSQLiteStore opens (creating if needed) the history database.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dbPath, err := GetDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("get db path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, cfg: cfg}, nil
}

// Add records e. The same text submitted twice in a row is stored once.
func (s *SQLiteStore) Add(ctx context.Context, e Entry) error {
	var last string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM entries ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read last entry: %w", err)
	}
	if err == nil && last == e.Text {
		return nil
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (text, cwd, created_at) VALUES (?, ?, ?)`,
		e.Text, e.CWD, e.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return s.trim(ctx)
}

// trim drops the oldest entries beyond MaxEntries.
func (s *SQLiteStore) trim(ctx context.Context) error {
	if s.cfg.MaxEntries <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM entries WHERE id NOT IN (
			SELECT id FROM entries ORDER BY id DESC LIMIT ?
		)`, s.cfg.MaxEntries)
	if err != nil {
		return fmt.Errorf("trim entries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, text, cwd, created_at FROM entries ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	entries, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (s *SQLiteStore) Search(ctx context.Context, pattern string, limit int) ([]Entry, error) {
	m, err := NewMatcher(pattern)
	if err != nil {
		return nil, err
	}
	entries, err := s.query(ctx, `SELECT id, text, cwd, created_at FROM entries ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return m.filter(entries, limit), nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var cwd sql.NullString
		if err := rows.Scan(&e.ID, &e.Text, &cwd, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.CWD = cwd.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
