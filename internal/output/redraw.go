package output

import "github.com/samsaffron/term-chat/internal/ui"

// RedrawFromHistory clears the screen and scrollback, re-renders the whole
// session log at the current width and places it so it ends just above the
// reserved rows and a prompt of promptHeight rows pinned to the bottom. The
// caller redraws the prompt afterwards.
//
// With an empty log the prompt goes to the top of the screen instead.
func (c *Coordinator) RedrawFromHistory(promptHeight int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		return
	}
	width, height := c.term.Size()
	promptHeight = clamp(promptHeight, 1, height)

	// Drop reservations that no longer fit, viewport first.
	for c.reservedRows() > 0 && promptHeight+c.reservedRows()+1 > height {
		if c.viewportRows > 0 {
			c.viewportRows--
		} else {
			c.statusRows--
		}
	}
	c.prompt.StatusLineActive = c.statusRows > 0

	text := ""
	if c.history != nil {
		text = ui.NormalizeText(c.history.RenderHistory(width), 0)
	}

	c.term.HideCursor()
	c.term.ResetScrollRegion()
	c.term.ClearScreen()
	c.out = OutputCursor{}
	c.forgetTranscriptRow()

	area := subSat(height, promptHeight+c.reservedRows())
	if text == "" || area == 0 {
		c.prompt.StartRow = c.reservedRows()
	} else {
		rows, endCol, endPending := ui.MeasureWrap(text, 0, width)
		used := rows + 1
		start := subSat(area, used)
		if area >= 2 {
			c.term.SetScrollRegion(0, area-1)
		}
		c.term.MoveTo(start, 0)
		c.term.Write(text)
		c.term.ResetScrollRegion()

		c.col, c.pendingWrap = endCol, endPending
		c.established = true
		c.advanceCursor(text)
		c.prompt.StartRow = min(area, start+used) + c.reservedRows()
	}

	c.prompt.Height = promptHeight
	c.prompt.Visible = false
	c.prompt.Cursor = nil
	c.term.Flush()
}
