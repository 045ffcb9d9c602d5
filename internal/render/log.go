package render

import (
	"sync"

	"github.com/samsaffron/term-chat/internal/ui"
)

// Log is the append-only session event log. It is safe for concurrent use
// and renders itself for a full repaint.
type Log struct {
	mu     sync.Mutex
	events []Event
	styles *ui.Styles
}

// NewLog creates an empty log whose replays use styles.
func NewLog(styles *ui.Styles) *Log {
	return &Log{styles: styles}
}

// Append records an event.
func (l *Log) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Events returns a copy of the recorded events.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Len returns the number of events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Reset empties the log.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// RenderHistory replays the whole log at width.
func (l *Log) RenderHistory(width int) string {
	return Replay(l.Events(), width, l.styles)
}

// Repainter repaints the screen from the log. *output.Coordinator
// implements it.
type Repainter interface {
	RedrawFromHistory(promptHeight int)
}

// Live records events and renders them to the terminal as they happen.
// Emit may be called from any goroutine.
type Live struct {
	mu  sync.Mutex
	log *Log
	r   *Renderer
}

// NewLive creates a live renderer writing to sink and recording into log.
func NewLive(sink Sink, width func() int, log *Log, styles *ui.Styles) *Live {
	return &Live{log: log, r: NewRenderer(sink, width, styles)}
}

// Emit records e and renders it.
func (l *Live) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Append(e)
	l.r.Render(e)
}

// Log returns the event log.
func (l *Live) Log() *Log {
	return l.log
}

// Reset empties the log and forgets the previous block.
func (l *Live) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Reset()
	l.r.Reset()
}

// Redraw repaints from the log with no event in flight, so nothing is
// both replayed and rendered again.
func (l *Live) Redraw(p Repainter, promptHeight int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p.RedrawFromHistory(promptHeight)
}
