package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Screen is an in-memory terminal implementing terminal.Controller. It
// models the parts of a VT100 the session depends on: a scroll region, line
// insertion and deletion, and deferred auto-wrap at the right margin.
type Screen struct {
	mu sync.Mutex

	width, height int
	cells         [][]rune
	row, col      int
	pendingWrap   bool
	top, bottom   int
	cursorVisible bool

	// Scrollback holds rows pushed off the top of the screen, oldest first.
	Scrollback []string
	// Ops records every primitive call in order.
	Ops []string
	// Flushes counts Flush calls.
	Flushes int
}

// NewScreen creates a blank screen of the given size with the cursor home.
func NewScreen(width, height int) *Screen {
	s := &Screen{cursorVisible: true}
	s.reset(width, height)
	return s
}

func (s *Screen) reset(width, height int) {
	s.width, s.height = width, height
	s.cells = make([][]rune, height)
	for i := range s.cells {
		s.cells[i] = blankRow(width)
	}
	s.top, s.bottom = 0, height-1
	s.row, s.col, s.pendingWrap = 0, 0, false
}

func blankRow(width int) []rune {
	row := make([]rune, width)
	for i := range row {
		row[i] = ' '
	}
	return row
}

func (s *Screen) op(format string, args ...any) {
	s.Ops = append(s.Ops, fmt.Sprintf(format, args...))
}

// Resize changes the screen size, keeping the top-left content.
func (s *Screen) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cells
	s.reset(width, height)
	for r := 0; r < height && r < len(old); r++ {
		copy(s.cells[r], old[r])
	}
}

func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *Screen) Write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("write %q", ansi.Strip(text))
	for _, r := range ansi.Strip(text) {
		switch r {
		case '\n':
			s.col, s.pendingWrap = 0, false
			s.lineFeed()
		case '\r':
			s.col, s.pendingWrap = 0, false
		default:
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			if s.pendingWrap {
				s.col, s.pendingWrap = 0, false
				s.lineFeed()
			}
			if s.col+w > s.width {
				s.col = 0
				s.lineFeed()
			}
			s.cells[s.row][s.col] = r
			for i := 1; i < w && s.col+i < s.width; i++ {
				s.cells[s.row][s.col+i] = 0
			}
			s.col += w
			if s.col >= s.width {
				s.col = s.width - 1
				s.pendingWrap = true
			}
		}
	}
}

// lineFeed moves down one row, scrolling the region when on its bottom margin.
func (s *Screen) lineFeed() {
	if s.row == s.bottom {
		s.scrollRegionUp(1)
		return
	}
	if s.row < s.height-1 {
		s.row++
	}
}

func (s *Screen) scrollRegionUp(n int) {
	for i := 0; i < n; i++ {
		if s.top == 0 {
			s.Scrollback = append(s.Scrollback, rowString(s.cells[0]))
		}
		copy(s.cells[s.top:s.bottom], s.cells[s.top+1:s.bottom+1])
		s.cells[s.bottom] = blankRow(s.width)
	}
}

func (s *Screen) scrollRegionDown(n int) {
	for i := 0; i < n; i++ {
		copy(s.cells[s.top+1:s.bottom+1], s.cells[s.top:s.bottom])
		s.cells[s.top] = blankRow(s.width)
	}
}

func (s *Screen) MoveTo(row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("move %d %d", row, col)
	s.row = clamp(row, 0, s.height-1)
	s.col = clamp(col, 0, s.width-1)
	s.pendingWrap = false
}

// SetScrollRegion sets the margins and homes the cursor, as DECSTBM does.
func (s *Screen) SetScrollRegion(top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("region %d %d", top, bottom)
	top = clamp(top, 0, s.height-1)
	bottom = clamp(bottom, 0, s.height-1)
	if top >= bottom {
		top, bottom = 0, s.height-1
	}
	s.top, s.bottom = top, bottom
	s.row, s.col, s.pendingWrap = 0, 0, false
}

func (s *Screen) ResetScrollRegion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("region reset")
	s.top, s.bottom = 0, s.height-1
	s.row, s.col, s.pendingWrap = 0, 0, false
}

func (s *Screen) InsertLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("insert %d", n)
	if s.row < s.top || s.row > s.bottom {
		return
	}
	for i := 0; i < n; i++ {
		copy(s.cells[s.row+1:s.bottom+1], s.cells[s.row:s.bottom])
		s.cells[s.row] = blankRow(s.width)
	}
	s.col, s.pendingWrap = 0, false
}

func (s *Screen) DeleteLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("delete %d", n)
	if s.row < s.top || s.row > s.bottom {
		return
	}
	for i := 0; i < n; i++ {
		copy(s.cells[s.row:s.bottom], s.cells[s.row+1:s.bottom+1])
		s.cells[s.bottom] = blankRow(s.width)
	}
	s.col, s.pendingWrap = 0, false
}

func (s *Screen) ScrollUp(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("scroll-up %d", n)
	s.scrollRegionUp(n)
}

func (s *Screen) ScrollDown(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("scroll-down %d", n)
	s.scrollRegionDown(n)
}

func (s *Screen) ClearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("clear-line")
	s.cells[s.row] = blankRow(s.width)
}

func (s *Screen) ClearToEndOfScreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("clear-below")
	for c := s.col; c < s.width; c++ {
		s.cells[s.row][c] = ' '
	}
	for r := s.row + 1; r < s.height; r++ {
		s.cells[r] = blankRow(s.width)
	}
}

func (s *Screen) ClearScreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op("clear-screen")
	for r := range s.cells {
		s.cells[r] = blankRow(s.width)
	}
	s.Scrollback = nil
	s.row, s.col, s.pendingWrap = 0, 0, false
}

func (s *Screen) HideCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorVisible = false
}

func (s *Screen) ShowCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorVisible = true
}

func (s *Screen) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Flushes++
}

// Line returns row r with trailing blanks removed.
func (s *Screen) Line(r int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r < 0 || r >= s.height {
		return ""
	}
	return rowString(s.cells[r])
}

// Lines returns every row with trailing blanks removed.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, s.height)
	for r := range s.cells {
		out[r] = rowString(s.cells[r])
	}
	return out
}

// String renders the screen for test failure messages.
func (s *Screen) String() string {
	var b strings.Builder
	for i, line := range s.Lines() {
		fmt.Fprintf(&b, "%2d|%s\n", i, line)
	}
	return b.String()
}

// Cursor returns the cursor position.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.row, s.col
}

// CursorVisible reports whether the cursor is shown.
func (s *Screen) CursorVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorVisible
}

// ScrollRegion returns the current margins.
func (s *Screen) ScrollRegion() (top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top, s.bottom
}

// ResetOps clears the recorded operations.
func (s *Screen) ResetOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ops = nil
}

func rowString(row []rune) string {
	var b strings.Builder
	for _, r := range row {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
