// Package terminal wraps the raw terminal: screen control sequences, raw
// mode, size probing and keyboard input decoding.
package terminal

// Controller is the set of screen primitives the output coordinator drives.
// Rows and columns are 0-indexed; scroll regions are inclusive.
//
// Implementations are best-effort. A failed write is logged, never returned,
// because there is nothing a caller could do to recover mid-frame.
type Controller interface {
	// Size returns the live terminal dimensions.
	Size() (width, height int)
	// Write emits text at the cursor. A bare "\n" moves to column 0 of the next row.
	Write(s string)
	MoveTo(row, col int)
	SetScrollRegion(top, bottom int)
	ResetScrollRegion()
	InsertLines(n int)
	DeleteLines(n int)
	ScrollUp(n int)
	ScrollDown(n int)
	// ClearLine erases the whole cursor row.
	ClearLine()
	ClearToEndOfScreen()
	// ClearScreen erases the screen and the scrollback and homes the cursor.
	ClearScreen()
	HideCursor()
	ShowCursor()
	// Flush pushes buffered output to the terminal.
	Flush()
}
