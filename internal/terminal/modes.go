package terminal

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when raw mode is requested on a non-terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Modes owns raw mode and bracketed paste for the session.
type Modes struct {
	mu    sync.Mutex
	fd    int
	out   io.Writer
	state *term.State
}

// NewModes creates a mode guard for the input terminal in and control output out.
func NewModes(in *os.File, out io.Writer) *Modes {
	return &Modes{fd: int(in.Fd()), out: out}
}

// Enable switches the terminal to raw mode and turns on bracketed paste.
// Calling Enable while already enabled is a no-op.
func (m *Modes) Enable() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		return nil
	}
	if !term.IsTerminal(m.fd) {
		return ErrNotTerminal
	}
	state, err := term.MakeRaw(m.fd)
	if err != nil {
		return err
	}
	m.state = state
	_, _ = io.WriteString(m.out, ansi.SetModeBracketedPaste)
	return nil
}

// Disable turns bracketed paste off and restores the saved terminal state.
// It is safe to call repeatedly and from deferred cleanup.
func (m *Modes) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return
	}
	_, _ = io.WriteString(m.out, ansi.ResetModeBracketedPaste+ansi.ShowCursor)
	_ = term.Restore(m.fd, m.state)
	m.state = nil
}

// Enabled reports whether raw mode is currently on.
func (m *Modes) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

// Suspend tears down raw mode for a child process and returns the function
// that re-enables it. The returned function is meant to be deferred so the
// modes come back on every exit path.
func (m *Modes) Suspend() (resume func() error) {
	wasEnabled := m.Enabled()
	m.Disable()
	return func() error {
		if !wasEnabled {
			return nil
		}
		return m.Enable()
	}
}
