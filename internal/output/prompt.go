package output

import (
	"strings"

	"github.com/samsaffron/term-chat/internal/ui"
)

// Frame is a fully rendered prompt: one styled string per screen row plus
// the caret position relative to the first row.
type Frame struct {
	Lines           []string
	CursorRow       int
	CursorCol       int
	StatusRowOffset int
}

// DrawPrompt paints the prompt at its registered position. A taller frame
// than fits below StartRow scrolls the whole screen up; rows left over from a
// taller previous frame are cleared.
func (c *Coordinator) DrawPrompt(f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		return
	}
	width, height := c.term.Size()
	c.fitToScreen(height)

	lines, cursorRow := fitFrame(f.Lines, f.CursorRow, max(subSat(height, c.reservedRows()), 1))
	prevHeight := c.promptHeight()
	h := len(lines)

	c.term.HideCursor()
	if over := c.prompt.StartRow + h - height; over > 0 {
		c.term.ResetScrollRegion()
		c.term.MoveTo(height-1, 0)
		c.term.Write(strings.Repeat("\n", over))
		c.prompt.StartRow = subSat(c.prompt.StartRow, over)
		if c.blockTop() == 0 {
			c.forgetTranscriptRow()
		}
	}

	for i, line := range lines {
		c.term.MoveTo(c.prompt.StartRow+i, 0)
		c.term.ClearLine()
		c.term.Write(ui.TruncateCells(line, width))
	}
	for i := h; i < prevHeight; i++ {
		if row := c.prompt.StartRow + i; row < height {
			c.term.MoveTo(row, 0)
			c.term.ClearLine()
		}
	}

	c.prompt.Visible = true
	c.prompt.Height = h
	c.prompt.StatusRowOffset = clamp(f.StatusRowOffset, 0, h-1)
	c.prompt.Cursor = &CursorPos{Row: cursorRow, Col: f.CursorCol}
	c.clampCursor()
	c.finish()
}

// fitFrame trims a frame to maxRows, keeping the caret row on screen.
func fitFrame(lines []string, cursorRow, maxRows int) ([]string, int) {
	if len(lines) == 0 {
		lines = []string{""}
	}
	if len(lines) <= maxRows {
		return lines, cursorRow
	}
	start := 0
	if cursorRow >= maxRows {
		start = cursorRow - maxRows + 1
	}
	return lines[start : start+maxRows], cursorRow - start
}

// forgetTranscriptRow is called when the transcript's last row has left the
// screen; the next print starts on a fresh row.
func (c *Coordinator) forgetTranscriptRow() {
	c.established = false
	c.col, c.pendingWrap = 0, false
}

// Hide marks the prompt hidden without touching the screen.
func (c *Coordinator) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt.Visible = false
	c.prompt.Cursor = nil
}

// HideAndClear erases the prompt rows and marks the prompt hidden.
func (c *Coordinator) HideAndClear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearPromptRows()
	c.prompt.Visible = false
	c.prompt.Cursor = nil
	c.term.Flush()
}

// HideAndExit releases every reserved row, erases the prompt and leaves the
// cursor where the shell should continue: just below the transcript.
func (c *Coordinator) HideAndExit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yieldScreen()
}

// Suspend hands the screen to a child process. Prints that arrive while
// suspended are queued and written by Resume.
func (c *Coordinator) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		return
	}
	c.yieldScreen()
	c.suspended = true
}

// Resume takes the screen back after a child process. row and col are where
// the child left the cursor; the prompt is placed on the next empty row and
// must be redrawn by the caller.
func (c *Coordinator) Resume(row, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, height := c.term.Size()
	row = clamp(row, 0, height-1)
	if col > 0 {
		c.term.MoveTo(row, col)
		c.term.Write("\n")
		row = min(row+1, height-1)
	}

	c.suspended = false
	c.prompt.StartRow = row
	c.prompt.Visible = false
	c.prompt.Cursor = nil
	c.forgetTranscriptRow()
	c.out = OutputCursor{}

	queued := c.deferred
	c.deferred = nil
	for _, fn := range queued {
		fn()
	}
	c.term.Flush()
}

// Suspended reports whether the screen is currently handed to a child.
func (c *Coordinator) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended
}

func (c *Coordinator) yieldScreen() {
	_, height := c.term.Size()
	c.fitToScreen(height)
	c.releaseRows(c.blockTop(), c.viewportRows)
	c.viewportRows = 0
	c.releaseRows(c.prompt.StartRow-c.statusRows, c.statusRows)
	c.statusRows = 0
	c.prompt.StatusLineActive = false
	c.clearPromptRows()
	c.prompt.Visible = false
	c.prompt.Cursor = nil

	c.term.ResetScrollRegion()
	cur := c.blockTop() - 1
	switch {
	case !c.established || cur < 0:
		c.term.MoveTo(c.blockTop(), 0)
	case c.col > 0 || c.pendingWrap:
		c.term.MoveTo(cur, 0)
		c.term.Write("\n")
	default:
		c.term.MoveTo(cur, 0)
	}
	c.term.ShowCursor()
	c.term.Flush()
}

func (c *Coordinator) clearPromptRows() {
	if !c.prompt.Visible {
		return
	}
	_, height := c.term.Size()
	for i := 0; i < c.prompt.Height; i++ {
		if row := c.prompt.StartRow + i; row < height {
			c.term.MoveTo(row, 0)
			c.term.ClearLine()
		}
	}
}
