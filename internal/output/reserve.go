package output

import "github.com/samsaffron/term-chat/internal/ui"

// SetStreamingStatusActive reserves or releases the rows directly above the
// prompt that hold the streaming status line (a spacer and the line itself).
// When the screen is short, fewer rows are reserved.
func (c *Coordinator) SetStreamingStatusActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		return
	}
	_, height := c.term.Size()
	c.fitToScreen(height)
	if active {
		if c.statusRows > 0 {
			return
		}
		c.statusRows = c.reserveRows(c.prompt.StartRow, statusRowsWanted)
	} else {
		if c.statusRows == 0 {
			return
		}
		c.releaseRows(c.prompt.StartRow-c.statusRows, c.statusRows)
		c.statusRows = 0
	}
	c.prompt.StatusLineActive = c.statusRows > 0
	c.finish()
}

// UpdateStatus redraws the streaming status line, waiting for the lock.
func (c *Coordinator) UpdateStatus(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawStatus(line)
}

// TryUpdateStatus redraws the streaming status line only if the lock is
// free, and reports whether it did. Animation callers use this so they never
// hold up input handling.
func (c *Coordinator) TryUpdateStatus(line string) bool {
	if !c.mu.TryLock() {
		return false
	}
	defer c.mu.Unlock()
	return c.drawStatus(line)
}

func (c *Coordinator) drawStatus(line string) bool {
	if c.suspended {
		return false
	}
	width, height := c.term.Size()
	c.fitToScreen(height)
	if c.statusRows == 0 {
		return false
	}
	c.term.HideCursor()
	c.term.MoveTo(c.prompt.StartRow-1, 0)
	c.term.ClearLine()
	c.term.Write(ui.TruncateCells(line, width))
	c.finish()
	return true
}

// ReserveOutputLines makes the live tool viewport n rows tall. It returns
// the rows actually reserved and whether that is all n.
func (c *Coordinator) ReserveOutputLines(n int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	got := c.reserveViewport(n)
	c.finish()
	return got, got >= n
}

func (c *Coordinator) reserveViewport(n int) int {
	if c.suspended {
		return 0
	}
	_, height := c.term.Size()
	c.fitToScreen(height)
	if n > c.viewportRows {
		c.viewportRows += c.reserveRows(c.blockTop(), n-c.viewportRows)
	}
	return c.viewportRows
}

// RenderToolViewport shows the last lines of running tool output in the
// viewport, reserving up to height rows first. It reports whether the full
// height was available.
func (c *Coordinator) RenderToolViewport(lines []string, height int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.reserveViewport(height)
	if rows == 0 {
		return false
	}
	width, _ := c.term.Size()
	tail := lines[max(0, len(lines)-rows):]
	top := c.blockTop()

	c.term.HideCursor()
	for i := 0; i < rows; i++ {
		c.term.MoveTo(top+i, 0)
		c.term.ClearLine()
		if i < len(tail) {
			c.term.Write(ui.TruncateCells(tail[i], width))
		}
	}
	c.finish()
	return rows >= height
}

// ClearViewportLines removes the viewport, pulling the prompt back up.
func (c *Coordinator) ClearViewportLines() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.viewportRows == 0 || c.suspended {
		return
	}
	_, height := c.term.Size()
	c.fitToScreen(height)
	if c.viewportRows == 0 {
		return
	}
	c.releaseRows(c.blockTop(), c.viewportRows)
	c.viewportRows = 0
	c.finish()
}

// ViewportRows returns the number of rows currently reserved for the viewport.
func (c *Coordinator) ViewportRows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewportRows
}

// reserveRows claims up to n blank rows at row at, which must lie between
// the transcript and the prompt. Free rows below the prompt are used first
// by pushing the prompt down; after that the transcript above at is
// scrolled up, always leaving its last row on screen. Returns the rows
// claimed; the caller adds them to its reservation.
func (c *Coordinator) reserveRows(at, n int) int {
	if n <= 0 {
		return 0
	}
	_, height := c.term.Size()
	c.fitToScreen(height)
	transcriptRows := c.blockTop()

	got := 0
	if grow := min(n, c.roomBelow(height)); grow > 0 {
		c.term.ResetScrollRegion()
		c.term.MoveTo(at, 0)
		c.term.InsertLines(grow)
		c.prompt.StartRow += grow
		got = grow
	}

	if take := min(n-got, subSat(transcriptRows, 1)); take > 0 && at >= 2 {
		c.term.SetScrollRegion(0, at-1)
		c.term.ScrollUp(take)
		c.term.ResetScrollRegion()
		got += take
	}
	if got < n {
		c.log.Debug("partial row reservation", "wanted", n, "got", got)
	}
	return got
}

// releaseRows deletes n rows starting at row, pulling the prompt up.
func (c *Coordinator) releaseRows(row, n int) {
	if n <= 0 {
		return
	}
	c.term.ResetScrollRegion()
	c.term.MoveTo(row, 0)
	c.term.DeleteLines(n)
	c.prompt.StartRow = subSat(c.prompt.StartRow, n)
}
