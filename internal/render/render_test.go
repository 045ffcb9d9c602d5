package render

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/samsaffron/term-chat/internal/output"
	"github.com/samsaffron/term-chat/internal/testutil"
	"github.com/samsaffron/term-chat/internal/ui"
)

func testStyles() *ui.Styles {
	return ui.NewStyles(io.Discard)
}

// plain strips styling and surrounding blanks from every line.
func plain(s string) string {
	lines := strings.Split(ansi.Strip(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		event Event
		want  ui.BlockKind
		ok    bool
	}{
		{UserPrompt("hi"), ui.BlockUserPrompt, true},
		{Thinking("hmm", true), ui.BlockThinking, true},
		{AssistantText("hello", false), ui.BlockAssistantText, true},
		{ToolUse("Read main.go"), ui.BlockToolCallBanner, true},
		{ToolResult(false, "ok", ""), ui.BlockToolContent, true},
		{ToolOutput("x", 1), ui.BlockToolContent, true},
		{FileReadOutput("a.go", "x", 1), ui.BlockToolContent, true},
		{FileDiff("", "go", ""), ui.BlockToolContent, true},
		{Info("i"), ui.BlockInfo, true},
		{Warning("w"), ui.BlockInfo, true},
		{Error("e"), ui.BlockInfo, true},
		{AutoCompact("c"), ui.BlockInfo, true},
		{ToolStart(), ui.BlockNone, false},
		{ToolEnd(), ui.BlockNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.event.Kind.String(), func(t *testing.T) {
			got, ok := Classify(tt.event)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Classify = (%s, %v), want (%s, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBufferTrailingNewlines(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		b := NewBuffer(80)
		b.Print("abc")
		b.EnsureTrailingNewlines(2)
		b.EnsureTrailingNewlines(2)
		if b.String() != "abc\n\n" {
			t.Errorf("got %q", b.String())
		}
	})

	t.Run("exact width counts as one newline", func(t *testing.T) {
		b := NewBuffer(4)
		b.Print("abcd")
		b.EnsureLineBreak()
		if b.String() != "abcd" {
			t.Errorf("line break after exact width: %q", b.String())
		}
		b.EnsureTrailingNewlines(2)
		if b.String() != "abcd\n" {
			t.Errorf("got %q, want one newline", b.String())
		}
	})

	t.Run("empty buffer", func(t *testing.T) {
		b := NewBuffer(80)
		b.EnsureLineBreak()
		if b.String() != "" {
			t.Errorf("line break on empty buffer wrote %q", b.String())
		}
		b.EnsureTrailingNewlines(2)
		if b.String() != "\n\n" {
			t.Errorf("got %q", b.String())
		}
	})

	t.Run("newline runs accumulate", func(t *testing.T) {
		b := NewBuffer(80)
		b.Print("a\n")
		b.Print("\n")
		b.EnsureTrailingNewlines(2)
		if b.String() != "a\n\n" {
			t.Errorf("got %q", b.String())
		}
	})
}

func TestReplaySpacing(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{
			name:   "prompt then answer then infos",
			events: []Event{UserPrompt("hi"), AssistantText("Hello", false), Info("a"), Info("b")},
			want:   "❯ hi\n\nHello\n\n• a\n• b\n",
		},
		{
			name:   "consecutive prompts are glued",
			events: []Event{UserPrompt("one"), UserPrompt("two")},
			want:   "❯ one\n❯ two\n",
		},
		{
			name:   "banner glued to its content",
			events: []Event{ToolUse("Run ls"), ToolStart(), ToolOutput("a\nb", 2), ToolEnd(), ToolUse("Run pwd")},
			want:   "⏺ Run ls\n⎿  a\nb\n\n⏺ Run pwd\n",
		},
		{
			name:   "thinking before text",
			events: []Event{Thinking("let me think", true), Thinking("\nmore", false), AssistantText("Done", false)},
			want:   "let me think\nmore\n\nDone\n",
		},
		{
			name:   "warnings and errors are informational",
			events: []Event{Warning("careful"), Error("broken"), AutoCompact("compacted")},
			want:   "⚠ careful\n✗ broken\n↻ compacted\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := plain(Replay(tt.events, 60, testStyles()))
			if got != tt.want {
				t.Errorf("got\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestReplaySuppressedSpacing(t *testing.T) {
	ui.SetSpacingSuppressed(true)
	t.Cleanup(func() { ui.SetSpacingSuppressed(false) })

	got := plain(Replay([]Event{UserPrompt("hi"), AssistantText("Hello", false), Info("a")}, 60, testStyles()))
	if want := "❯ hi\nHello\n• a\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

const streamedMarkdown = "# Title\n\nFirst paragraph with **bold** text.\n\n" +
	"```go\nfunc main() {\n\n\tprintln(1)\n}\n```\n\n- item one\n- item two\n\nLast line."

func chunked(text string, size int) []Event {
	var events []Event
	for len(text) > 0 {
		n := min(size, len(text))
		events = append(events, AssistantText(text[:n], true))
		text = text[n:]
	}
	return append(events, AssistantText("", false))
}

func TestStreamingIsChunkInvariant(t *testing.T) {
	styles := testStyles()
	want := Replay(chunked(streamedMarkdown, len(streamedMarkdown)), 50, styles)
	if want == "" {
		t.Fatal("empty render")
	}
	for _, size := range []int{1, 2, 3, 7, 16} {
		if got := Replay(chunked(streamedMarkdown, size), 50, styles); got != want {
			t.Errorf("chunk size %d:\n%s\nwant\n%s", size, got, want)
		}
	}
}

func TestOpenBlockRendersCompleteSegmentsOnly(t *testing.T) {
	events := []Event{
		AssistantText("Para one.\n\nPara ", true),
		AssistantText("two still going", true),
	}
	got := plain(Replay(events, 40, testStyles()))
	if got != "Para one.\n" {
		t.Errorf("got %q", got)
	}
}

func TestLiveMatchesRedraw(t *testing.T) {
	screen := testutil.NewScreen(50, 60)
	c := output.New(screen, 0)
	styles := testStyles()
	log := NewLog(styles)
	c.SetHistory(log)
	live := NewLive(c, func() int { w, _ := c.Size(); return w }, log, styles)
	frame := output.Frame{Lines: []string{"> "}, CursorCol: 2}
	c.DrawPrompt(frame)

	for _, e := range []Event{
		UserPrompt("explain"),
		Thinking("considering\n", true),
		Thinking("options", false),
	} {
		live.Emit(e)
	}
	for _, e := range chunked(streamedMarkdown, 5) {
		live.Emit(e)
	}
	live.Emit(ToolUse("Run go test"))
	live.Emit(ToolOutput("ok\nPASS", 2))
	live.Emit(Info("done"))

	before := transcript(screen, c)
	live.Redraw(c, 1)
	c.DrawPrompt(frame)
	after := transcript(screen, c)

	if before != after {
		t.Errorf("redraw differs from live output\nlive:\n%s\nredraw:\n%s", before, after)
	}
	if !strings.Contains(before, "Title") || !strings.Contains(before, "PASS") {
		t.Errorf("transcript missing content:\n%s", before)
	}
}

type staticHistory string

func (h staticHistory) RenderHistory(int) string { return string(h) }

func TestBufferWrapsLikeCoordinator(t *testing.T) {
	tests := []struct {
		name string
		run  func(Sink)
	}{
		{name: "wide runes wrap early", run: func(s Sink) {
			s.Print("abcd中中中")
			s.EnsureTrailingNewlines(2)
			s.Print("next\n")
		}},
		{name: "exact width", run: func(s Sink) {
			s.Print("abcde")
			s.EnsureTrailingNewlines(2)
			s.Print("x")
		}},
		{name: "tabs", run: func(s Sink) {
			s.Print("a\tb")
			s.EnsureLineBreak()
			s.Print("c\n")
		}},
		{name: "styled and charset escapes", run: func(s Sink) {
			s.Print("\x1b(B\x1b[1mabc\x1b[0m")
			s.Print("de")
			s.EnsureLineBreak()
			s.EnsureTrailingNewlines(2)
			s.Print("f")
		}},
	}
	frame := output.Frame{Lines: []string{">"}, CursorCol: 1}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			screen := testutil.NewScreen(5, 20)
			c := output.New(screen, 0)
			c.DrawPrompt(frame)
			buf := NewBuffer(5)
			tc.run(c)
			tc.run(buf)

			cur := c.Cursor()
			if cur.Col != buf.column() || cur.TrailingNewlines != buf.trailing || cur.HasOutput != buf.hasOutput {
				t.Fatalf("coordinator cursor %+v, buffer col=%d trailing=%d output=%v",
					cur, buf.column(), buf.trailing, buf.hasOutput)
			}

			live := transcript(screen, c)
			replayScreen := testutil.NewScreen(5, 20)
			replay := output.New(replayScreen, 0, output.WithHistory(staticHistory(buf.String())))
			replay.RedrawFromHistory(1)
			replay.DrawPrompt(frame)
			if got := transcript(replayScreen, replay); got != live {
				t.Errorf("replay differs from live output\nlive:\n%s\nreplay:\n%s", live, got)
			}
		})
	}
}

func TestBufferWideRunesKeepBlankRow(t *testing.T) {
	b := NewBuffer(5)
	b.Print("abcd中中中")
	b.EnsureTrailingNewlines(2)
	b.Print("next\n")
	if want := "abcd中中中\n\nnext\n"; b.String() != want {
		t.Errorf("got %q, want %q", b.String(), want)
	}
}

// transcript returns the rows above the prompt without leading or trailing
// blank rows.
func transcript(s *testutil.Screen, c *output.Coordinator) string {
	rows := s.Lines()[:c.Prompt().StartRow]
	return strings.Trim(strings.Join(rows, "\n"), "\n")
}

func TestDiffFiles(t *testing.T) {
	e, ok := DiffFiles("main.go", "a\nb\nc\n", "a\nB\nc\nd\n")
	if !ok {
		t.Fatal("no diff for changed content")
	}
	if e.Kind != KindFileDiff || e.Summary != "Updated main.go with 2 additions and 1 removal" {
		t.Errorf("event = %+v", e)
	}
	got := plain(Replay([]Event{e}, 80, testStyles()))
	for _, want := range []string{"2 - b", "2 + B", "4 + d"} {
		if !strings.Contains(got, want) {
			t.Errorf("diff render missing %q:\n%s", want, got)
		}
	}
	if _, ok := DiffFiles("x", "same", "same"); ok {
		t.Error("diff reported for equal content")
	}
}

func TestToolOutputTruncates(t *testing.T) {
	var lines []string
	for i := range 30 {
		lines = append(lines, strings.Repeat("x", i%5+1))
	}
	got := plain(Replay([]Event{ToolOutput(strings.Join(lines, "\n"), 30)}, 80, testStyles()))
	if !strings.Contains(got, "… +18 lines") {
		t.Errorf("missing overflow marker:\n%s", got)
	}
	if n := strings.Count(got, "\n"); n != maxOutputLines+1 {
		t.Errorf("got %d lines, want %d", n, maxOutputLines+1)
	}
}
