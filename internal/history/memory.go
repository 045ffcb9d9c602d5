package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int64
	max     int
}

// NewMemoryStore creates an empty store holding at most max entries (0 for
// no limit).
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{max: max, nextID: 1}
}

func (s *MemoryStore) Add(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.entries); n > 0 && s.entries[n-1].Text == e.Text {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, e)
	if s.max > 0 && len(s.entries) > s.max {
		s.entries = append([]Entry(nil), s.entries[len(s.entries)-s.max:]...)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), tail(s.entries, limit)...), nil
}

func (s *MemoryStore) Search(ctx context.Context, pattern string, limit int) ([]Entry, error) {
	m, err := NewMatcher(pattern)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.filter(s.entries, limit), nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
