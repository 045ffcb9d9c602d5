package editor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Position is a display cell relative to the top-left of the input area.
type Position struct {
	Row int
	Col int
}

type stop struct {
	offset int
	pos    Position
}

// Layout is the word-wrapped form of a buffer at a fixed width. Every rune
// boundary of the buffer (including the end) has a display position.
type Layout struct {
	Width int
	Rows  []string
	stops []stop
}

// NewLayout wraps text at width in a single pass. Runs of non-space
// characters move to a fresh row when they do not fit in the remaining
// columns but fit on a row of their own; longer runs are split per
// character. Spaces never start a row: spaces past the right edge hang and
// are not drawn. The caret may sit at column width, one past the last cell.
func NewLayout(text string, width int) *Layout {
	if width < 1 {
		width = 1
	}
	l := &Layout{Width: width, stops: make([]stop, 0, len(text)+1)}

	var row strings.Builder
	r, col := 0, 0
	newRow := func() {
		l.Rows = append(l.Rows, row.String())
		row.Reset()
		r++
		col = 0
	}
	mark := func(offset int) {
		l.stops = append(l.stops, stop{offset, Position{r, min(col, width)}})
	}

	for i := 0; i < len(text); {
		ch, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case ch == '\n':
			mark(i)
			newRow()
			i += size
		case unicode.IsSpace(ch):
			mark(i)
			if col < width {
				row.WriteByte(' ')
			}
			col++
			i += size
		default:
			end := runEnd(text, i)
			if rw := runewidth.StringWidth(text[i:end]); col > 0 && col+rw > width && rw <= width {
				newRow()
			}
			for i < end {
				ch, size = utf8.DecodeRuneInString(text[i:])
				cw := runewidth.RuneWidth(ch)
				if col+cw > width && col > 0 {
					newRow()
				}
				mark(i)
				row.WriteString(text[i : i+size])
				col += cw
				i += size
			}
		}
	}
	mark(len(text))
	l.Rows = append(l.Rows, row.String())
	return l
}

// runEnd returns the end of the run of non-space runes starting at i.
func runEnd(text string, i int) int {
	for i < len(text) {
		ch, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(ch) {
			break
		}
		i += size
	}
	return i
}

// Height is the number of display rows.
func (l *Layout) Height() int {
	return len(l.Rows)
}

// Locate returns the display position of a byte offset. Offsets inside a
// rune resolve to the rune's start.
func (l *Layout) Locate(offset int) Position {
	i := sort.Search(len(l.stops), func(i int) bool { return l.stops[i].offset > offset })
	if i == 0 {
		return Position{}
	}
	return l.stops[i-1].pos
}

// OffsetAt maps a display position back to a byte offset: the last rune
// boundary on that row whose column does not exceed col. Rows outside the
// layout clamp to the first or last row.
func (l *Layout) OffsetAt(row, col int) int {
	if len(l.stops) == 0 {
		return 0
	}
	if row < 0 {
		return l.stops[0].offset
	}
	last := l.stops[len(l.stops)-1]
	if row > last.pos.Row {
		return last.offset
	}
	best := -1
	for _, s := range l.stops {
		if s.pos.Row < row {
			continue
		}
		if s.pos.Row > row {
			break
		}
		if best < 0 || s.pos.Col <= col {
			best = s.offset
		}
	}
	if best < 0 {
		return last.offset
	}
	return best
}
