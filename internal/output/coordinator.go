// Package output serializes every write to the terminal and keeps the
// transcript scrolling above a prompt pinned below it.
//
// The screen is split, top to bottom, into the transcript area, the rows
// reserved for a live tool viewport, the rows reserved for the streaming
// status line, and the prompt. Everything above the prompt is addressed
// relative to PromptState.StartRow, so moving the prompt moves the reserved
// rows and the end of the transcript with it.
package output

import (
	"log/slog"
	"sync"

	"github.com/samsaffron/term-chat/internal/terminal"
)

// CursorPos is a caret position relative to the prompt's first row.
type CursorPos struct {
	Row int
	Col int
}

// PromptState is the registered geometry of the prompt box.
type PromptState struct {
	Visible          bool
	Height           int
	StartRow         int
	StatusRowOffset  int
	Cursor           *CursorPos
	StatusLineActive bool
}

// OutputCursor tracks the logical end of the transcript.
type OutputCursor struct {
	Col              int
	TrailingNewlines int
	HasOutput        bool
}

// maxTrailingNewlines caps OutputCursor.TrailingNewlines.
const maxTrailingNewlines = 64

// effectiveTrailing counts a transcript that ended exactly at the right
// margin as ending in one newline.
func (c OutputCursor) effectiveTrailing() int {
	if c.TrailingNewlines == 0 && c.Col == 0 && c.HasOutput {
		return 1
	}
	return c.TrailingNewlines
}

// HistoryRenderer renders the whole session log at a width for a full repaint.
type HistoryRenderer interface {
	RenderHistory(width int) string
}

// statusRowsWanted is the spacer row plus the status line itself.
const statusRowsWanted = 2

// Coordinator owns the prompt geometry and the transcript cursor. All
// exported methods take the output lock; TryUpdateStatus is the only one
// that gives up instead of waiting.
type Coordinator struct {
	mu   sync.Mutex
	term terminal.Controller
	log  *slog.Logger

	prompt PromptState
	out    OutputCursor

	// established is set once a transcript row exists directly above the
	// reserved block. Until then the prompt row itself stands in for it.
	established bool
	// col is the physical column after the last transcript write; when
	// pendingWrap is set the row was filled and the terminal has not wrapped.
	col         int
	pendingWrap bool

	statusRows   int
	viewportRows int

	history   HistoryRenderer
	suspended bool
	deferred  []func() bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHistory sets the renderer used by RedrawFromHistory.
func WithHistory(h HistoryRenderer) Option {
	return func(c *Coordinator) {
		c.history = h
	}
}

// New creates a coordinator drawing through term. The prompt starts hidden
// at startRow, which is normally the row the shell left the cursor on.
func New(term terminal.Controller, startRow int, opts ...Option) *Coordinator {
	c := &Coordinator{
		term: term,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	_, height := term.Size()
	c.prompt.StartRow = clamp(startRow, 0, height-1)
	return c
}

// SetHistory replaces the renderer used by RedrawFromHistory.
func (c *Coordinator) SetHistory(h HistoryRenderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = h
}

// Prompt returns a copy of the prompt state.
func (c *Coordinator) Prompt() PromptState {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.prompt
	if p.Cursor != nil {
		cur := *p.Cursor
		p.Cursor = &cur
	}
	return p
}

// Cursor returns the transcript cursor.
func (c *Coordinator) Cursor() OutputCursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out
}

// Size returns the live terminal size.
func (c *Coordinator) Size() (width, height int) {
	return c.term.Size()
}

// SetPromptVisible registers prompt geometry without drawing.
func (c *Coordinator) SetPromptVisible(height, startRow, statusOffset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, termHeight := c.term.Size()
	height = clamp(height, 1, termHeight)
	c.prompt.Visible = true
	c.prompt.Height = height
	c.prompt.StartRow = clamp(startRow, 0, termHeight-height)
	c.prompt.StatusRowOffset = clamp(statusOffset, 0, height-1)
	c.clampCursor()
}

// SetPromptHidden marks the prompt hidden, keeping its position.
func (c *Coordinator) SetPromptHidden() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt.Visible = false
}

// SetCursor records where the caret belongs inside the prompt.
func (c *Coordinator) SetCursor(rowOffset, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt.Cursor = &CursorPos{Row: rowOffset, Col: col}
	c.clampCursor()
}

// ClearCursor forgets the caret position.
func (c *Coordinator) ClearCursor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt.Cursor = nil
}

func (c *Coordinator) clampCursor() {
	if c.prompt.Cursor == nil {
		return
	}
	width, _ := c.term.Size()
	c.prompt.Cursor.Row = clamp(c.prompt.Cursor.Row, 0, max(c.prompt.Height-1, 0))
	c.prompt.Cursor.Col = clamp(c.prompt.Cursor.Col, 0, width-1)
}

// promptHeight is the number of rows the prompt occupies on screen.
func (c *Coordinator) promptHeight() int {
	if !c.prompt.Visible {
		return 0
	}
	return c.prompt.Height
}

func (c *Coordinator) reservedRows() int {
	return c.statusRows + c.viewportRows
}

// blockTop is the first row below the transcript area.
func (c *Coordinator) blockTop() int {
	return subSat(c.prompt.StartRow, c.reservedRows())
}

// roomBelow is the number of free rows under the prompt.
func (c *Coordinator) roomBelow(height int) int {
	return subSat(height, c.prompt.StartRow+c.promptHeight())
}

// fitToScreen pulls the prompt block back inside a terminal that shrank
// since the geometry was recorded; a hidden prompt only needs its first row
// on screen. Reservations that no longer fit above the prompt are dropped,
// viewport first. Once anything moved, the row the transcript ended on is
// no longer known.
func (c *Coordinator) fitToScreen(height int) {
	if height < 1 {
		return
	}
	h := clamp(c.promptHeight(), 1, height)
	maxStart := height - h
	if c.prompt.StartRow <= maxStart && c.promptHeight() <= height {
		return
	}
	c.log.Debug("prompt outside screen, clamping",
		"start_row", c.prompt.StartRow, "height", c.promptHeight(), "term_height", height)
	if c.prompt.Visible {
		c.prompt.Height = h
	}
	c.prompt.StartRow = min(c.prompt.StartRow, maxStart)
	for c.reservedRows() > c.prompt.StartRow {
		if c.viewportRows > 0 {
			c.viewportRows--
		} else {
			c.statusRows--
		}
	}
	c.prompt.StatusLineActive = c.statusRows > 0
	c.prompt.StatusRowOffset = clamp(c.prompt.StatusRowOffset, 0, h-1)
	c.clampCursor()
	c.forgetTranscriptRow()
}

// restoreCursor puts the hardware caret back inside the prompt.
func (c *Coordinator) restoreCursor() {
	if !c.prompt.Visible {
		return
	}
	if c.prompt.Cursor != nil {
		c.term.MoveTo(c.prompt.StartRow+c.prompt.Cursor.Row, c.prompt.Cursor.Col)
	} else {
		c.term.MoveTo(c.prompt.StartRow, 0)
	}
	c.term.ShowCursor()
}

func subSat(a, b int) int {
	if a > b {
		return a - b
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
