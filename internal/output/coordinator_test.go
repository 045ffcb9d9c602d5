package output

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/samsaffron/term-chat/internal/testutil"
)

func newScreenCoordinator(width, height, startRow int) (*testutil.Screen, *Coordinator) {
	screen := testutil.NewScreen(width, height)
	return screen, New(screen, startRow)
}

func promptFrame(lines ...string) Frame {
	return Frame{Lines: lines, CursorRow: 0, CursorCol: 2}
}

func fill(screen *testutil.Screen, lines ...string) {
	for i, line := range lines {
		screen.MoveTo(i, 0)
		screen.Write(line)
	}
	screen.ResetOps()
}

func expectLines(t *testing.T, screen *testutil.Screen, want map[int]string) {
	t.Helper()
	for row, line := range want {
		if got := screen.Line(row); got != line {
			t.Fatalf("row %d = %q, want %q\n%s", row, got, line, screen)
		}
	}
}

func lastWrite(screen *testutil.Screen) string {
	for i := len(screen.Ops) - 1; i >= 0; i-- {
		if strings.HasPrefix(screen.Ops[i], "write ") {
			return screen.Ops[i]
		}
	}
	return ""
}

func countWrites(screen *testutil.Screen) int {
	n := 0
	for _, op := range screen.Ops {
		if strings.HasPrefix(op, "write ") {
			n++
		}
	}
	return n
}

func TestPrintBootstrapPushesPromptDown(t *testing.T) {
	screen, c := newScreenCoordinator(20, 10, 1)
	fill(screen, "$ term-chat")
	c.DrawPrompt(promptFrame("> "))

	c.Print("hello\n")
	expectLines(t, screen, map[int]string{0: "$ term-chat", 1: "hello", 2: "", 3: ">"})
	if got := c.Prompt().StartRow; got != 3 {
		t.Fatalf("StartRow = %d, want 3", got)
	}

	c.Print("wor")
	c.Print("ld")
	expectLines(t, screen, map[int]string{2: "world", 3: ">"})

	if row, col := screen.Cursor(); row != 3 || col != 2 {
		t.Fatalf("cursor at %d,%d, want 3,2", row, col)
	}
}

func TestPrintPinnedPromptScrollsTranscript(t *testing.T) {
	screen, c := newScreenCoordinator(20, 6, 5)
	fill(screen, "l0", "l1", "l2", "l3", "l4")
	c.DrawPrompt(promptFrame("> "))

	c.Print("a\nb\n")

	expectLines(t, screen, map[int]string{0: "l3", 1: "l4", 2: "a", 3: "b", 4: "", 5: ">"})
	if got := strings.Join(screen.Scrollback, ","); got != "l0,l1,l2" {
		t.Fatalf("scrollback = %q", got)
	}
	if got := c.Prompt().StartRow; got != 5 {
		t.Fatalf("StartRow = %d, want 5", got)
	}
	top, bottom := screen.ScrollRegion()
	if top != 0 || bottom != 5 {
		t.Fatalf("scroll region left at %d-%d", top, bottom)
	}
}

// A full-height terminal with a three-row prompt at the bottom: output keeps
// landing directly above the prompt and the prompt never moves.
func TestPrintPinnedPromptStream(t *testing.T) {
	screen, c := newScreenCoordinator(40, 24, 21)
	c.DrawPrompt(Frame{Lines: []string{"status", "> ", ""}, CursorRow: 1, CursorCol: 2})

	for i := 0; i < 30; i++ {
		c.Print("line\n")
	}
	c.Print("tail")

	expectLines(t, screen, map[int]string{19: "line", 20: "tail", 21: "status", 22: ">"})
	if got := c.Prompt().StartRow; got != 21 {
		t.Fatalf("StartRow = %d, want 21", got)
	}
	if row, col := screen.Cursor(); row != 22 || col != 2 {
		t.Fatalf("cursor at %d,%d, want 22,2", row, col)
	}
}

func TestEnsureTrailingNewlinesIdempotent(t *testing.T) {
	screen, c := newScreenCoordinator(20, 10, 0)
	c.DrawPrompt(promptFrame("> "))
	c.Print("hello")

	c.EnsureTrailingNewlines(2)
	writes := countWrites(screen)
	c.EnsureTrailingNewlines(2)
	if got := countWrites(screen); got != writes {
		t.Fatalf("second EnsureTrailingNewlines wrote %d more times", got-writes)
	}
	if got := c.Cursor().TrailingNewlines; got != 2 {
		t.Fatalf("TrailingNewlines = %d, want 2", got)
	}

	c.EnsureLineBreak()
	if got := countWrites(screen); got != writes {
		t.Fatal("EnsureLineBreak wrote at column 0")
	}
}

func TestEnsureTrailingNewlinesImplicitWrap(t *testing.T) {
	t.Run("exact width counts as one newline", func(t *testing.T) {
		screen, c := newScreenCoordinator(10, 10, 0)
		c.DrawPrompt(promptFrame("> "))
		c.Print("0123456789")

		cur := c.Cursor()
		if cur.Col != 0 || cur.TrailingNewlines != 0 || !cur.HasOutput {
			t.Fatalf("cursor after exact-width line = %+v", cur)
		}
		screen.ResetOps()
		c.EnsureTrailingNewlines(2)
		if got := lastWrite(screen); got != `write "\n"` {
			t.Fatalf("wrote %s, want a single newline", got)
		}
	})

	t.Run("no output writes two", func(t *testing.T) {
		screen, c := newScreenCoordinator(10, 10, 3)
		c.DrawPrompt(promptFrame("> "))
		screen.ResetOps()
		c.EnsureTrailingNewlines(2)
		if got := lastWrite(screen); got != `write "\n\n"` {
			t.Fatalf("wrote %s, want two newlines", got)
		}
	})
}

func TestEnsureLineBreak(t *testing.T) {
	screen, c := newScreenCoordinator(20, 10, 0)
	c.DrawPrompt(promptFrame("> "))
	c.Print("abc")
	screen.ResetOps()

	c.EnsureLineBreak()
	if got := lastWrite(screen); got != `write "\n"` {
		t.Fatalf("wrote %s, want newline", got)
	}
	if cur := c.Cursor(); cur.Col != 0 || cur.TrailingNewlines != 1 {
		t.Fatalf("cursor = %+v", cur)
	}
}

func TestPrintWrapsAcrossChunksLikeTerminal(t *testing.T) {
	screen, c := newScreenCoordinator(10, 10, 0)
	c.DrawPrompt(promptFrame("> "))

	c.Print("0123456789")
	c.Print("\nnext")

	expectLines(t, screen, map[int]string{0: "0123456789", 1: "next", 2: ">"})
}

func TestPrintExpandsTabs(t *testing.T) {
	screen, c := newScreenCoordinator(20, 10, 0)
	c.DrawPrompt(promptFrame("> "))
	c.Print("a\tb\n")
	expectLines(t, screen, map[int]string{0: "a       b"})
}

func TestDrawPromptGrowAndShrink(t *testing.T) {
	screen, c := newScreenCoordinator(20, 5, 4)
	fill(screen, "t0", "t1", "t2", "t3")
	c.DrawPrompt(promptFrame("> a"))

	c.DrawPrompt(Frame{Lines: []string{"> a", "  b", "  c"}, CursorRow: 2, CursorCol: 3})
	if got := c.Prompt().StartRow; got != 2 {
		t.Fatalf("StartRow after growth = %d, want 2", got)
	}
	expectLines(t, screen, map[int]string{0: "t2", 1: "t3", 2: "> a", 3: "  b", 4: "  c"})

	c.DrawPrompt(promptFrame("> a"))
	expectLines(t, screen, map[int]string{2: "> a", 3: "", 4: ""})
	if p := c.Prompt(); p.Height != 1 || p.StartRow != 2 {
		t.Fatalf("prompt = %+v", p)
	}
}

func TestDrawPromptTallerThanScreenKeepsCaret(t *testing.T) {
	screen, c := newScreenCoordinator(20, 3, 0)
	c.DrawPrompt(Frame{Lines: []string{"r0", "r1", "r2", "r3", "r4"}, CursorRow: 4, CursorCol: 1})

	p := c.Prompt()
	if p.Height != 3 || p.StartRow != 0 {
		t.Fatalf("prompt = %+v", p)
	}
	if p.Cursor == nil || p.Cursor.Row != 2 {
		t.Fatalf("cursor = %+v, want row 2", p.Cursor)
	}
	expectLines(t, screen, map[int]string{0: "r2", 2: "r4"})
}

func TestStreamingStatusLine(t *testing.T) {
	screen, c := newScreenCoordinator(20, 8, 7)
	c.DrawPrompt(promptFrame("> "))

	c.SetStreamingStatusActive(true)
	if p := c.Prompt(); !p.StatusLineActive || p.StartRow != 7 {
		t.Fatalf("prompt after reserve = %+v", p)
	}
	c.UpdateStatus("working")
	c.Print("x")
	expectLines(t, screen, map[int]string{4: "x", 5: "", 6: "working", 7: ">"})

	c.SetStreamingStatusActive(false)
	expectLines(t, screen, map[int]string{4: "x", 5: ">", 6: "", 7: ""})
	if p := c.Prompt(); p.StatusLineActive || p.StartRow != 5 {
		t.Fatalf("prompt after release = %+v", p)
	}

	c.Print("y")
	expectLines(t, screen, map[int]string{4: "xy", 5: ">"})
}

func TestTryUpdateStatusSkipsWhenBusy(t *testing.T) {
	screen, c := newScreenCoordinator(20, 8, 7)
	c.DrawPrompt(promptFrame("> "))
	c.SetStreamingStatusActive(true)

	c.mu.Lock()
	ok := c.TryUpdateStatus("frame")
	c.mu.Unlock()
	if ok {
		t.Fatal("TryUpdateStatus succeeded while the lock was held")
	}
	if !c.TryUpdateStatus("frame") {
		t.Fatal("TryUpdateStatus failed with the lock free")
	}
	expectLines(t, screen, map[int]string{6: "frame"})
}

func TestReserveOutputLinesClamps(t *testing.T) {
	_, c := newScreenCoordinator(20, 10, 6)
	c.DrawPrompt(promptFrame("> ", ""))

	got, ok := c.ReserveOutputLines(5)
	if got != 5 || !ok {
		t.Fatalf("ReserveOutputLines(5) = %d, %v", got, ok)
	}
	got, ok = c.ReserveOutputLines(20)
	if ok || got != 7 {
		t.Fatalf("ReserveOutputLines(20) = %d, %v, want 7, false", got, ok)
	}
	p := c.Prompt()
	if p.StartRow+p.Height > 10 {
		t.Fatalf("prompt overflows: start %d height %d", p.StartRow, p.Height)
	}
}

func TestToolViewport(t *testing.T) {
	screen, c := newScreenCoordinator(20, 10, 9)
	fill(screen, "t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8")
	c.DrawPrompt(promptFrame("> "))

	if !c.RenderToolViewport([]string{"a", "b", "c", "d"}, 2) {
		t.Fatal("viewport not fully reserved")
	}
	expectLines(t, screen, map[int]string{6: "t8", 7: "c", 8: "d", 9: ">"})

	c.RenderToolViewport([]string{"a", "b", "c", "d", "e"}, 2)
	expectLines(t, screen, map[int]string{7: "d", 8: "e"})

	c.ClearViewportLines()
	expectLines(t, screen, map[int]string{6: "t8", 7: ">"})
	if c.ViewportRows() != 0 {
		t.Fatal("viewport rows not released")
	}
}

type staticHistory string

func (h staticHistory) RenderHistory(int) string { return string(h) }

func TestRedrawFromHistory(t *testing.T) {
	t.Run("pins transcript above prompt", func(t *testing.T) {
		screen := testutil.NewScreen(20, 8)
		c := New(screen, 2, WithHistory(staticHistory("one\ntwo\n")))
		c.Print("stale")

		c.RedrawFromHistory(1)
		if got := c.Prompt().StartRow; got != 7 {
			t.Fatalf("StartRow = %d, want 7", got)
		}
		c.DrawPrompt(promptFrame("> "))
		expectLines(t, screen, map[int]string{4: "one", 5: "two", 6: "", 7: ">"})
		if cur := c.Cursor(); cur.TrailingNewlines != 1 || cur.Col != 0 {
			t.Fatalf("cursor after redraw = %+v", cur)
		}
	})

	t.Run("empty history puts prompt on top", func(t *testing.T) {
		screen := testutil.NewScreen(20, 8)
		c := New(screen, 5, WithHistory(staticHistory("")))
		c.RedrawFromHistory(2)
		if got := c.Prompt().StartRow; got != 0 {
			t.Fatalf("StartRow = %d, want 0", got)
		}
		if c.Cursor().HasOutput {
			t.Fatal("cursor not reset")
		}
	})
}

func TestSuspendQueuesPrints(t *testing.T) {
	screen, c := newScreenCoordinator(20, 8, 2)
	c.DrawPrompt(promptFrame("> "))
	c.Print("before")

	c.Suspend()
	if c.Prompt().Visible {
		t.Fatal("prompt still visible while suspended")
	}
	screen.ResetOps()
	c.Print("later")
	if countWrites(screen) != 0 {
		t.Fatal("wrote while suspended")
	}

	c.Resume(4, 0)
	expectLines(t, screen, map[int]string{4: "later"})
	if c.Suspended() {
		t.Fatal("still suspended")
	}
}

func TestHideAndExitLeavesCursorBelowTranscript(t *testing.T) {
	screen, c := newScreenCoordinator(20, 8, 1)
	c.DrawPrompt(promptFrame("> input"))
	c.Print("hello")

	c.HideAndExit()
	if row, col := screen.Cursor(); row != 2 || col != 0 {
		t.Fatalf("cursor at %d,%d, want 2,0", row, col)
	}
	expectLines(t, screen, map[int]string{1: "hello", 2: ""})
	if !screen.CursorVisible() {
		t.Fatal("cursor left hidden")
	}
}

func TestBootstrapAtHeight24(t *testing.T) {
	prompt := promptFrame("> ", "  ", "status")
	tests := []struct {
		name      string
		startRow  int
		insert    string
		scrolled  int
		firstLine int
		promptRow int
	}{
		// Plenty of room: the prompt is pushed down by the three lines
		// plus the spacer row.
		{name: "room below", startRow: 5, insert: "insert 4", firstLine: 5, promptRow: 9},
		// Two free rows: those are used, the rest comes from scrolling.
		{name: "partial room", startRow: 19, insert: "insert 2", scrolled: 2, firstLine: 17, promptRow: 21},
		// Pinned to rows 21-23: the transcript region scrolls instead.
		{name: "pinned", startRow: 21, scrolled: 4, firstLine: 17, promptRow: 21},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			screen, c := newScreenCoordinator(40, 24, tc.startRow)
			above := make([]string, tc.startRow)
			for i := range above {
				above[i] = fmt.Sprintf("s%d", i)
			}
			fill(screen, above...)
			c.DrawPrompt(prompt)
			screen.ResetOps()

			c.Print("l1\nl2\nl3\n")

			if tc.insert != "" && !slices.Contains(screen.Ops, tc.insert) {
				t.Errorf("ops %v missing %q", screen.Ops, tc.insert)
			}
			if tc.insert == "" && slices.ContainsFunc(screen.Ops, func(op string) bool { return strings.HasPrefix(op, "insert") }) {
				t.Errorf("pinned prompt inserted rows: %v", screen.Ops)
			}
			if got := len(screen.Scrollback); got != tc.scrolled {
				t.Errorf("scrolled %d rows off screen, want %d", got, tc.scrolled)
			}
			expectLines(t, screen, map[int]string{
				tc.firstLine:     "l1",
				tc.firstLine + 1: "l2",
				tc.firstLine + 2: "l3",
				tc.firstLine + 3: "",
				tc.promptRow:     ">",
				tc.promptRow + 2: "status",
			})
			if tc.startRow > 0 {
				last := fmt.Sprintf("s%d", tc.startRow-1)
				if got := screen.Line(tc.firstLine - 1); got != last {
					t.Errorf("row above transcript = %q, want %q\n%s", got, last, screen)
				}
			}
			p := c.Prompt()
			if p.StartRow != tc.promptRow || p.StartRow+p.Height > 24 {
				t.Errorf("prompt at %d height %d", p.StartRow, p.Height)
			}
		})
	}
}

func TestPrintAfterTerminalShrinks(t *testing.T) {
	screen, c := newScreenCoordinator(20, 24, 21)
	c.DrawPrompt(promptFrame("> ", "  ", "status"))
	for i := range 5 {
		c.Print(fmt.Sprintf("line %d\n", i))
	}

	screen.Resize(20, 10)
	screen.ResetOps()
	c.Print("after\n")

	for _, op := range screen.Ops {
		var a, b int
		switch {
		case strings.HasPrefix(op, "region ") && op != "region reset":
			fmt.Sscanf(op, "region %d %d", &a, &b)
			if b >= 10 {
				t.Errorf("scroll region %q past the bottom row", op)
			}
		case strings.HasPrefix(op, "move "):
			fmt.Sscanf(op, "move %d %d", &a, &b)
			if a >= 10 {
				t.Errorf("cursor move %q past the bottom row", op)
			}
		}
	}
	p := c.Prompt()
	if p.StartRow+p.Height > 10 {
		t.Fatalf("prompt rows %d-%d outside a 10 row screen", p.StartRow, p.StartRow+p.Height-1)
	}
	found := false
	for row := 0; row < p.StartRow; row++ {
		if screen.Line(row) == "after" {
			found = true
		}
	}
	if !found {
		t.Errorf("printed text not above the prompt:\n%s", screen)
	}

	c.DrawPrompt(promptFrame("> ", "  ", "status"))
	expectLines(t, screen, map[int]string{p.StartRow: ">", p.StartRow + 2: "status"})
}

func TestStatusLineAfterTerminalShrinks(t *testing.T) {
	screen, c := newScreenCoordinator(20, 24, 21)
	c.DrawPrompt(promptFrame("> "))
	c.SetStreamingStatusActive(true)

	screen.Resize(20, 6)
	screen.ResetOps()
	c.UpdateStatus("working")

	p := c.Prompt()
	if p.StartRow+p.Height > 6 {
		t.Fatalf("prompt at %d height %d on a 6 row screen", p.StartRow, p.Height)
	}
	if screen.Line(p.StartRow-1) != "working" {
		t.Errorf("status row:\n%s", screen)
	}
}
