package terminal

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// Probe queries the size of the terminal attached to a file descriptor.
type Probe struct {
	fd int
}

// NewProbe creates a probe for f, usually os.Stdout.
func NewProbe(f *os.File) *Probe {
	return &Probe{fd: int(f.Fd())}
}

// IsTerminal reports whether the probed descriptor is a terminal.
func (p *Probe) IsTerminal() bool {
	return term.IsTerminal(p.fd)
}

// Size returns the live terminal size, falling back to $COLUMNS/$LINES and
// then 80x24 when the descriptor is not a terminal.
func (p *Probe) Size() (int, int) {
	w, h, err := term.GetSize(p.fd)
	if err == nil && w > 0 && h > 0 {
		return w, h
	}
	return envInt("COLUMNS", fallbackWidth), envInt("LINES", fallbackHeight)
}

func envInt(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil && v > 0 {
		return v
	}
	return def
}
