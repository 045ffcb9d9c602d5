package chat

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/samsaffron/term-chat/internal/terminal"
)

// Host owns the input side of the terminal: the decoded event stream and
// the modes a child process needs switched off.
type Host interface {
	// Events returns the current input stream. It is replaced after Release.
	Events() <-chan terminal.Event
	// Release stops reading input and leaves raw mode. The returned function
	// takes the terminal back and reports where the child left the cursor.
	Release() (reacquire func() (row, col int))
}

// cursorQueryTimeout bounds the wait for a cursor position report.
const cursorQueryTimeout = 300 * time.Millisecond

// TTY is the Host for a real terminal.
type TTY struct {
	in, out *os.File
	modes   *terminal.Modes
	probe   *terminal.Probe
	log     *slog.Logger

	mu     sync.Mutex
	reader *terminal.Reader
}

// OpenTTY switches in to raw mode and starts reading it. It also returns
// the row the cursor is on, which is where the prompt starts.
func OpenTTY(in, out *os.File, log *slog.Logger) (*TTY, int, error) {
	t := &TTY{
		in:    in,
		out:   out,
		modes: terminal.NewModes(in, out),
		probe: terminal.NewProbe(out),
		log:   log,
	}
	if err := t.modes.Enable(); err != nil {
		return nil, 0, err
	}
	row, _, pending := t.cursor()
	reader, err := terminal.NewReader(in, log, pending...)
	if err != nil {
		t.modes.Disable()
		return nil, 0, fmt.Errorf("start input reader: %w", err)
	}
	t.reader = reader
	return t, row, nil
}

// Probe returns the size probe for the output terminal.
func (t *TTY) Probe() *terminal.Probe {
	return t.probe
}

// cursor asks the terminal where the cursor is, assuming the bottom row
// when it does not answer. Keystrokes read while waiting are returned for
// the next reader to replay.
func (t *TTY) cursor() (row, col int, pending []terminal.Event) {
	row, col, pending, err := terminal.QueryCursor(t.in, t.out, cursorQueryTimeout)
	if len(pending) > 0 {
		t.log.Debug("replaying input read around the cursor report", "events", len(pending))
	}
	if err != nil {
		_, height := t.probe.Size()
		t.log.Debug("cursor query failed", "error", err)
		return height - 1, 0, pending
	}
	return row, col, pending
}

func (t *TTY) Events() <-chan terminal.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reader.Events()
}

func (t *TTY) Release() func() (int, int) {
	t.mu.Lock()
	t.reader.Stop()
	t.mu.Unlock()
	restore := t.modes.Suspend()

	return func() (int, int) {
		if err := restore(); err != nil {
			t.log.Error("failed to re-enter raw mode", "error", err)
		}
		row, col, pending := t.cursor()
		reader, err := terminal.NewReader(t.in, t.log, pending...)
		if err != nil {
			t.log.Error("failed to restart input reader", "error", err)
			return row, col
		}
		t.mu.Lock()
		t.reader = reader
		t.mu.Unlock()
		return row, col
	}
}

// Close stops input and restores the terminal.
func (t *TTY) Close() {
	t.mu.Lock()
	t.reader.Stop()
	t.mu.Unlock()
	t.modes.Disable()
}
