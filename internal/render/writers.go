package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samsaffron/term-chat/internal/ui"
)

// markdownWriter renders a streamed assistant block. Text is held until a
// paragraph break that leaves complete markdown behind, then that segment
// is rendered on its own. Segments are separated by one blank line.
type markdownWriter struct {
	pending   string
	compactor *ui.StreamingNewlineCompactor
	segments  int
}

func (w *markdownWriter) reset() {
	w.pending = ""
	w.compactor = ui.NewStreamingNewlineCompactor(ui.MaxStreamingConsecutiveNewlines)
	w.segments = 0
}

func (w *markdownWriter) write(r *Renderer, text string) {
	w.pending += w.compactor.CompactChunk(text)
	for {
		cut := ui.NextSafeBoundary(w.pending)
		if cut < 0 {
			return
		}
		segment := w.pending[:cut]
		w.pending = w.pending[cut:]
		w.emit(r, segment)
	}
}

func (w *markdownWriter) flush(r *Renderer) {
	if strings.TrimSpace(w.pending) != "" {
		w.emit(r, w.pending)
	}
	w.pending = ""
}

func (w *markdownWriter) emit(r *Renderer, segment string) {
	rendered := ui.RenderMarkdown(segment, r.width())
	if rendered == "" {
		return
	}
	if w.segments > 0 {
		r.sink.EnsureTrailingNewlines(ui.BlankLineTrailingNewlines)
	}
	r.sink.Print(rendered + "\n")
	w.segments++
}

// lineWriter streams a thinking block one complete line at a time.
type lineWriter struct {
	pending string
	started bool
}

func (w *lineWriter) reset() {
	*w = lineWriter{}
}

func (w *lineWriter) write(r *Renderer, text string) {
	if !w.started {
		text = strings.TrimLeft(text, "\n")
		if text == "" {
			return
		}
		w.started = true
	}
	w.pending += text
	if i := strings.LastIndexByte(w.pending, '\n'); i >= 0 {
		r.sink.Print(styleLines(r.styles.Thinking, w.pending[:i+1]))
		w.pending = w.pending[i+1:]
	}
}

func (w *lineWriter) flush(r *Renderer) {
	if w.pending != "" {
		r.sink.Print(styleLines(r.styles.Thinking, w.pending) + "\n")
	}
	w.pending = ""
}

// styleLines styles each line on its own so lipgloss does not pad the
// block to a rectangle.
func styleLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
