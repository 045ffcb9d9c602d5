// Package editor implements the prompt line editor: an edit buffer with
// word-wrapped layout, overlay menus for slash commands and file paths, and
// history navigation.
package editor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// State is the edit buffer. Cursor is a byte offset into Text and always
// sits on a rune boundary.
type State struct {
	Text   string
	Cursor int
}

// SetText replaces the buffer and moves the cursor to the end.
func (s *State) SetText(text string) {
	s.Text = text
	s.Cursor = len(text)
}

// Reset empties the buffer.
func (s *State) Reset() {
	s.Text = ""
	s.Cursor = 0
}

// Insert adds text at the cursor.
func (s *State) Insert(text string) {
	s.Text = s.Text[:s.Cursor] + text + s.Text[s.Cursor:]
	s.Cursor += len(text)
}

// ReplaceRange swaps Text[start:end] for text and leaves the cursor after it.
func (s *State) ReplaceRange(start, end int, text string) {
	s.Text = s.Text[:start] + text + s.Text[end:]
	s.Cursor = start + len(text)
}

// Backspace deletes the rune before the cursor.
func (s *State) Backspace() bool {
	if s.Cursor == 0 {
		return false
	}
	_, size := utf8.DecodeLastRuneInString(s.Text[:s.Cursor])
	s.Text = s.Text[:s.Cursor-size] + s.Text[s.Cursor:]
	s.Cursor -= size
	return true
}

// Delete deletes the rune under the cursor.
func (s *State) Delete() bool {
	if s.Cursor >= len(s.Text) {
		return false
	}
	_, size := utf8.DecodeRuneInString(s.Text[s.Cursor:])
	s.Text = s.Text[:s.Cursor] + s.Text[s.Cursor+size:]
	return true
}

func (s *State) Left() {
	if s.Cursor > 0 {
		_, size := utf8.DecodeLastRuneInString(s.Text[:s.Cursor])
		s.Cursor -= size
	}
}

func (s *State) Right() {
	if s.Cursor < len(s.Text) {
		_, size := utf8.DecodeRuneInString(s.Text[s.Cursor:])
		s.Cursor += size
	}
}

// WordLeft moves to the start of the previous word.
func (s *State) WordLeft() {
	s.Cursor = s.prevWordStart()
}

// WordRight moves past the end of the next word.
func (s *State) WordRight() {
	i := s.Cursor
	for i < len(s.Text) {
		r, size := utf8.DecodeRuneInString(s.Text[i:])
		if isWordRune(r) {
			break
		}
		i += size
	}
	for i < len(s.Text) {
		r, size := utf8.DecodeRuneInString(s.Text[i:])
		if !isWordRune(r) {
			break
		}
		i += size
	}
	s.Cursor = i
}

// LineStart moves to the start of the current logical line.
func (s *State) LineStart() {
	s.Cursor = s.lineStart()
}

// LineEnd moves to the end of the current logical line.
func (s *State) LineEnd() {
	s.Cursor = s.lineEnd()
}

// KillToLineStart deletes from the start of the logical line to the cursor.
func (s *State) KillToLineStart() {
	start := s.lineStart()
	if start == s.Cursor && start > 0 {
		// At a line start: join with the previous line.
		start--
	}
	s.ReplaceRange(start, s.Cursor, "")
}

// KillToLineEnd deletes from the cursor to the end of the logical line.
func (s *State) KillToLineEnd() {
	end := s.lineEnd()
	if end == s.Cursor && end < len(s.Text) {
		end++
	}
	s.Text = s.Text[:s.Cursor] + s.Text[end:]
}

// DeleteWordBackward deletes the word before the cursor.
func (s *State) DeleteWordBackward() {
	s.ReplaceRange(s.prevWordStart(), s.Cursor, "")
}

// Token returns the whitespace-delimited token around the cursor.
func (s *State) Token() (start, end int, token string) {
	start = s.Cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(s.Text[:start])
		if unicode.IsSpace(r) {
			break
		}
		start -= size
	}
	end = s.Cursor
	for end < len(s.Text) {
		r, size := utf8.DecodeRuneInString(s.Text[end:])
		if unicode.IsSpace(r) {
			break
		}
		end += size
	}
	return start, end, s.Text[start:end]
}

func (s *State) prevWordStart() int {
	i := s.Cursor
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s.Text[:i])
		if isWordRune(r) {
			break
		}
		i -= size
	}
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s.Text[:i])
		if !isWordRune(r) {
			break
		}
		i -= size
	}
	return i
}

func (s *State) lineStart() int {
	return strings.LastIndexByte(s.Text[:s.Cursor], '\n') + 1
}

func (s *State) lineEnd() int {
	if i := strings.IndexByte(s.Text[s.Cursor:], '\n'); i >= 0 {
		return s.Cursor + i
	}
	return len(s.Text)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
