package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes all escape sequences from a string
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// VisibleWidth returns the display width of s, ignoring escape sequences.
func VisibleWidth(s string) int {
	return ansi.StringWidth(s)
}

// TrimTrailingSpace removes trailing blanks from a styled line, including
// blanks wrapped in SGR sequences. Styling is reset if anything was cut.
func TrimTrailingSpace(line string) string {
	plain := ansi.Strip(line)
	visible := strings.TrimRight(plain, " ")
	if len(visible) == len(plain) {
		return line
	}
	if !strings.Contains(line, "\x1b") {
		return visible
	}
	return ansi.Truncate(line, ansi.StringWidth(visible), "") + ansi.ResetStyle
}

// TruncateLine cuts a styled line to width cells, appending tail if cut.
func TruncateLine(line string, width int, tail string) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(line) <= width {
		return line
	}
	return ansi.Truncate(line, width, tail)
}

// TabWidth is the tab stop interval NormalizeText expands to.
const TabWidth = 8

// MeasureWrap walks text written from column col on a terminal width cells
// wide. It returns the rows the cursor advances, the final column and
// whether the last row was filled exactly, leaving the terminal holding a
// deferred wrap. A wide rune that does not fit before the margin wraps
// early, as terminals do. Escape sequences take no room.
func MeasureWrap(text string, col, width int) (rows, endCol int, pending bool) {
	if width < 1 {
		width = 1
	}
	var state byte
	for len(text) > 0 {
		seq, w, n, newState := ansi.DecodeSequenceWc(text, state, nil)
		state = newState
		if n <= 0 {
			n = 1
		}
		text = text[n:]
		switch {
		case seq == "\n":
			rows++
			col, pending = 0, false
		case seq == "\r":
			col, pending = 0, false
		case w == 0:
		default:
			if pending {
				rows++
				col, pending = 0, false
			}
			if col+w > width {
				rows++
				col = 0
			}
			col += w
			if col >= width {
				pending = true
			}
		}
	}
	return rows, col, pending
}

// NormalizeText prepares transcript text for MeasureWrap: CRLF becomes LF,
// tabs are expanded from column col and control characters other than
// newline and carriage return are dropped. Escape sequences pass through.
func NormalizeText(text string, col int) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(text))
	var state byte
	for len(text) > 0 {
		seq, w, n, newState := ansi.DecodeSequenceWc(text, state, nil)
		state = newState
		if n <= 0 {
			n = 1
		}
		text = text[n:]
		if len(seq) != 1 || w > 0 {
			b.WriteString(seq)
			col += w
			continue
		}
		switch c := seq[0]; {
		case c == '\n' || c == '\r':
			b.WriteByte(c)
			col = 0
		case c == '\t':
			n := TabWidth - col%TabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case c < 0x20 || c >= 0x7f:
		default:
			b.WriteByte(c)
			col++
		}
	}
	return b.String()
}

// TruncateCells keeps at most width cells of a styled line, preserving its
// escape sequences.
func TruncateCells(line string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.TruncateWc(line, width, "")
}
