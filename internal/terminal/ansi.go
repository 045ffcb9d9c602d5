package terminal

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// SizeFunc reports the live terminal size.
type SizeFunc func() (width, height int)

// ANSI is a Controller that renders primitives as VT escape sequences into
// a buffer and writes them out on Flush.
type ANSI struct {
	out  io.Writer
	size SizeFunc
	log  *slog.Logger
	buf  bytes.Buffer
}

// NewANSI creates a controller writing to out. size is consulted on every
// Size call; it must not cache across resizes.
func NewANSI(out io.Writer, size SizeFunc, logger *slog.Logger) *ANSI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ANSI{out: out, size: size, log: logger}
}

func (a *ANSI) Size() (int, int) {
	w, h := a.size()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Write translates bare line feeds to CRLF since output post-processing is
// off in raw mode.
func (a *ANSI) Write(s string) {
	if s == "" {
		return
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	a.buf.WriteString(strings.ReplaceAll(s, "\n", "\r\n"))
}

func (a *ANSI) MoveTo(row, col int) {
	a.buf.WriteString(ansi.CursorPosition(col+1, row+1))
}

func (a *ANSI) SetScrollRegion(top, bottom int) {
	a.buf.WriteString(ansi.SetTopBottomMargins(top+1, bottom+1))
}

func (a *ANSI) ResetScrollRegion() {
	a.buf.WriteString(ansi.SetTopBottomMargins(0, 0))
}

func (a *ANSI) InsertLines(n int) {
	if n > 0 {
		a.buf.WriteString(ansi.InsertLine(n))
	}
}

func (a *ANSI) DeleteLines(n int) {
	if n > 0 {
		a.buf.WriteString(ansi.DeleteLine(n))
	}
}

func (a *ANSI) ScrollUp(n int) {
	if n > 0 {
		a.buf.WriteString(ansi.ScrollUp(n))
	}
}

func (a *ANSI) ScrollDown(n int) {
	if n > 0 {
		a.buf.WriteString(ansi.ScrollDown(n))
	}
}

func (a *ANSI) ClearLine() {
	a.buf.WriteString(ansi.EraseEntireLine)
}

func (a *ANSI) ClearToEndOfScreen() {
	a.buf.WriteString(ansi.EraseScreenBelow)
}

func (a *ANSI) ClearScreen() {
	a.buf.WriteString(ansi.EraseEntireScreen)
	a.buf.WriteString(ansi.EraseDisplay(3))
	a.buf.WriteString(ansi.CursorHomePosition)
}

func (a *ANSI) HideCursor() {
	a.buf.WriteString(ansi.HideCursor)
}

func (a *ANSI) ShowCursor() {
	a.buf.WriteString(ansi.ShowCursor)
}

func (a *ANSI) Flush() {
	if a.buf.Len() == 0 {
		return
	}
	if _, err := a.out.Write(a.buf.Bytes()); err != nil {
		a.log.Debug("terminal write failed", "error", err, "bytes", a.buf.Len())
	}
	a.buf.Reset()
}
