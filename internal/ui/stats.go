package ui

import (
	"fmt"
	"sync"
	"time"
)

// SessionStats tracks token usage and timing for the running turn and the
// whole session. Safe for concurrent use.
type SessionStats struct {
	mu sync.Mutex

	StartTime     time.Time
	InputTokens   int
	OutputTokens  int
	ToolCallCount int
	TurnCount     int

	turnStart time.Time
	turnOut   int
}

// NewSessionStats creates a new SessionStats with StartTime set to now.
func NewSessionStats() *SessionStats {
	return &SessionStats{StartTime: time.Now()}
}

// Reset zeroes the totals and restarts the session clock.
func (s *SessionStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartTime = time.Now()
	s.InputTokens, s.OutputTokens = 0, 0
	s.ToolCallCount, s.TurnCount = 0, 0
	s.turnStart, s.turnOut = time.Time{}, 0
}

// BeginTurn marks the start of a model turn.
func (s *SessionStats) BeginTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TurnCount++
	s.turnStart = time.Now()
	s.turnOut = 0
}

// AddUsage adds token usage to the stats.
func (s *SessionStats) AddUsage(input, output int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InputTokens += input
	s.OutputTokens += output
	s.turnOut += output
}

// AddToolCall counts one tool invocation.
func (s *SessionStats) AddToolCall() {
	s.mu.Lock()
	s.ToolCallCount++
	s.mu.Unlock()
}

// TurnElapsed returns the time since BeginTurn.
func (s *SessionStats) TurnElapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnStart.IsZero() {
		return 0
	}
	return time.Since(s.turnStart)
}

// StatusLine renders the live figures shown next to the streaming spinner.
func (s *SessionStats) StatusLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := time.Duration(0)
	if !s.turnStart.IsZero() {
		elapsed = time.Since(s.turnStart)
	}
	if s.turnOut == 0 {
		return fmt.Sprintf("%.1fs", elapsed.Seconds())
	}
	return fmt.Sprintf("%.1fs · %s tokens", elapsed.Seconds(), FormatTokenCount(s.turnOut))
}

// Render returns the session totals as a compact single-line string.
func (s *SessionStats) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := time.Since(s.StartTime)
	return fmt.Sprintf("Stats: %.1fs | %d turns | %s in / %s out | %d tools",
		total.Seconds(), s.TurnCount,
		FormatTokenCount(s.InputTokens), FormatTokenCount(s.OutputTokens),
		s.ToolCallCount)
}

// FormatTokenCount abbreviates token counts: 950, 1.2k, 3.4M.
func FormatTokenCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
