package output

import (
	"strings"

	"github.com/samsaffron/term-chat/internal/ui"
)

// Print appends text to the transcript and puts the caret back in the
// prompt. Text may contain SGR styling and newlines.
func (c *Coordinator) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		c.deferred = append(c.deferred, func() bool { return c.print(text) })
		return
	}
	if c.print(text) {
		c.finish()
	}
}

// EnsureLineBreak ends the current transcript line unless it is already empty.
func (c *Coordinator) EnsureLineBreak() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		c.deferred = append(c.deferred, c.ensureLineBreak)
		return
	}
	if c.ensureLineBreak() {
		c.finish()
	}
}

// EnsureTrailingNewlines writes just enough newlines for the transcript to
// end in at least n of them. Calling it twice writes nothing the second time.
func (c *Coordinator) EnsureTrailingNewlines(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		c.deferred = append(c.deferred, func() bool { return c.ensureTrailing(n) })
		return
	}
	if c.ensureTrailing(n) {
		c.finish()
	}
}

func (c *Coordinator) ensureLineBreak() bool {
	if c.out.Col == 0 {
		return false
	}
	return c.print("\n")
}

func (c *Coordinator) ensureTrailing(n int) bool {
	deficit := ui.NewlinesNeededForTrailing(c.out.effectiveTrailing(), n)
	if deficit == 0 {
		return false
	}
	return c.print(strings.Repeat("\n", deficit))
}

func (c *Coordinator) finish() {
	c.restoreCursor()
	c.term.Flush()
}

// print writes text at the end of the transcript, making room above the
// reserved rows first. It reports whether anything was written.
func (c *Coordinator) print(text string) bool {
	width, height := c.term.Size()
	c.fitToScreen(height)

	startCol := c.col
	fresh := !c.established || c.pendingWrap
	if fresh {
		startCol = 0
	}
	text = ui.NormalizeText(text, startCol)
	if text == "" {
		return false
	}
	original := text

	if fresh && !strings.HasPrefix(text, "\n") {
		// The next glyph starts a fresh row. A leading newline already
		// does that; otherwise supply one.
		text = "\n" + text
	}
	rows, endCol, endPending := ui.MeasureWrap(text, startCol, width)

	c.term.HideCursor()

	top := c.blockTop()
	cur := top - 1
	if grow := min(rows, c.roomBelow(height)); grow > 0 {
		c.term.ResetScrollRegion()
		c.term.MoveTo(top, 0)
		c.term.InsertLines(grow)
		c.prompt.StartRow += grow
		top += grow
	}

	if cur < 0 {
		// The row above the prompt is off screen: begin on row 0.
		if strings.HasPrefix(text, "\n") {
			text = text[1:]
			rows--
		}
		cur = 0
	}

	switch {
	case top >= 2:
		if over := cur + rows - (top - 1); over > 0 {
			if s := min(over, cur); s > 0 {
				c.term.SetScrollRegion(0, top-1)
				c.term.ScrollUp(s)
				cur -= s
			}
		}
		c.term.SetScrollRegion(0, top-1)
		c.term.MoveTo(cur, startCol)
		c.term.Write(text)
		c.term.ResetScrollRegion()
	case top == 1 && rows == 0:
		c.term.MoveTo(0, startCol)
		c.term.Write(text)
	default:
		c.printCramped(text, width)
	}

	c.col, c.pendingWrap = endCol, endPending
	c.established = true
	c.advanceCursor(original)
	return true
}

// printCramped handles a transcript area of fewer than two rows, which
// cannot hold a scroll region. Only the final row of text stays visible.
func (c *Coordinator) printCramped(text string, width int) {
	c.log.Debug("transcript area too small, showing last row only", "start_row", c.prompt.StartRow)
	if c.blockTop() == 0 {
		return
	}
	last := text
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		last = text[i+1:]
	}
	c.term.ResetScrollRegion()
	c.term.MoveTo(0, 0)
	c.term.ClearLine()
	c.term.Write(ui.TruncateCells(last, width))
}

// advanceCursor updates the logical transcript cursor after text was written.
func (c *Coordinator) advanceCursor(text string) {
	trailing := ui.CountTrailingNewlines(text)
	if trailing == len(text) {
		c.out.TrailingNewlines = min(c.out.effectiveTrailing()+trailing, maxTrailingNewlines)
	} else {
		c.out.TrailingNewlines = min(trailing, maxTrailingNewlines)
	}
	c.out.HasOutput = true
	if c.pendingWrap {
		c.out.Col = 0
	} else {
		c.out.Col = c.col
	}
}
