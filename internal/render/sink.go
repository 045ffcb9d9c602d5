package render

import (
	"math"
	"strings"

	"github.com/samsaffron/term-chat/internal/ui"
)

// Sink receives transcript text. *output.Coordinator is the live sink;
// Buffer collects text for replay.
type Sink interface {
	Print(text string)
	EnsureLineBreak()
	EnsureTrailingNewlines(n int)
}

// Buffer is a Sink that accumulates text. It tracks the end of the text
// with the same wrap measurement the output coordinator uses, including
// treating a line that exactly fills width as already broken, so replayed
// text matches what was written live.
type Buffer struct {
	width     int
	buf       strings.Builder
	col       int
	pending   bool
	trailing  int
	hasOutput bool
}

// NewBuffer creates an empty buffer for a terminal of the given width.
func NewBuffer(width int) *Buffer {
	return &Buffer{width: width}
}

func (b *Buffer) Print(text string) {
	start := b.col
	if b.pending {
		start = 0
	}
	text = ui.NormalizeText(text, start)
	if text == "" {
		return
	}
	b.buf.WriteString(text)

	n := ui.CountTrailingNewlines(text)
	if n == len(text) {
		b.trailing = b.effectiveTrailing() + n
	} else {
		b.trailing = n
	}
	b.hasOutput = true
	_, b.col, b.pending = ui.MeasureWrap(text, start, b.wrapWidth())
}

func (b *Buffer) EnsureLineBreak() {
	if b.column() != 0 {
		b.Print("\n")
	}
}

func (b *Buffer) EnsureTrailingNewlines(n int) {
	if deficit := ui.NewlinesNeededForTrailing(b.effectiveTrailing(), n); deficit > 0 {
		b.Print(strings.Repeat("\n", deficit))
	}
}

// String returns everything printed so far.
func (b *Buffer) String() string {
	return b.buf.String()
}

// wrapWidth is the measuring width; an unbounded buffer never wraps.
func (b *Buffer) wrapWidth() int {
	if b.width <= 0 {
		return math.MaxInt
	}
	return b.width
}

// column is the logical column: a filled row counts as already wrapped.
func (b *Buffer) column() int {
	if b.pending {
		return 0
	}
	return b.col
}

func (b *Buffer) effectiveTrailing() int {
	if b.trailing == 0 && b.column() == 0 && b.hasOutput {
		return 1
	}
	return b.trailing
}
