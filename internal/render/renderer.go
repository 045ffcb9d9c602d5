package render

import (
	"github.com/samsaffron/term-chat/internal/ui"
)

// Renderer writes events to a Sink, inserting the spacing between blocks.
// Thinking and assistant text arrive as deltas and stay open until a
// non-streaming event of the same kind, a different block or a tool marker
// closes them. A Renderer is not safe for concurrent use.
type Renderer struct {
	sink   Sink
	width  func() int
	styles *ui.Styles

	prev   ui.BlockKind
	open   Kind
	isOpen bool
	md     markdownWriter
	think  lineWriter
}

// NewRenderer creates a renderer that asks width for the wrap width each
// time it renders.
func NewRenderer(sink Sink, width func() int, styles *ui.Styles) *Renderer {
	if styles == nil {
		styles = ui.DefaultStyles()
	}
	r := &Renderer{sink: sink, width: width, styles: styles}
	r.Reset()
	return r
}

// Reset forgets the previous block and drops any open one.
func (r *Renderer) Reset() {
	r.prev = ui.BlockNone
	r.isOpen = false
	r.md.reset()
	r.think.reset()
}

// Previous returns the kind of the last block rendered.
func (r *Renderer) Previous() ui.BlockKind {
	return r.prev
}

// Render writes one event.
func (r *Renderer) Render(e Event) {
	block, ok := Classify(e)
	if !ok {
		r.Close()
		return
	}
	if r.isOpen && r.open == e.Kind {
		r.write(e)
		return
	}

	r.Close()
	r.separate(block)
	r.prev = block

	switch e.Kind {
	case KindThinking, KindAssistantText:
		r.open, r.isOpen = e.Kind, true
		r.md.reset()
		r.think.reset()
		r.write(e)
	default:
		if text := r.block(e, r.width()); text != "" {
			r.sink.Print(text)
		}
	}
}

// Close flushes the open streaming block, if any.
func (r *Renderer) Close() {
	if !r.isOpen {
		return
	}
	switch r.open {
	case KindAssistantText:
		r.md.flush(r)
	case KindThinking:
		r.think.flush(r)
	}
	r.isOpen = false
	r.sink.EnsureLineBreak()
}

func (r *Renderer) write(e Event) {
	switch e.Kind {
	case KindAssistantText:
		r.md.write(r, e.Text)
	case KindThinking:
		r.think.write(r, e.Text)
	}
	if !e.Streaming {
		r.Close()
	}
}

// separate ends the previous block with a blank line or a bare line break.
func (r *Renderer) separate(next ui.BlockKind) {
	if r.prev == ui.BlockNone {
		return
	}
	if n := ui.TrailingNewlinesBefore(r.prev, next); n > ui.SectionBreakTrailingNewlines {
		r.sink.EnsureTrailingNewlines(n)
	} else {
		r.sink.EnsureLineBreak()
	}
}

// Replay renders events into a string at a fixed width.
func Replay(events []Event, width int, styles *ui.Styles) string {
	buf := NewBuffer(width)
	r := NewRenderer(buf, func() int { return width }, styles)
	for _, e := range events {
		r.Render(e)
	}
	return buf.String()
}
