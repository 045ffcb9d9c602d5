package editor

import "testing"

func TestStateEditing(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		cursor     int
		op         func(*State)
		wantText   string
		wantCursor int
	}{
		{"insert middle", "ac", 1, func(s *State) { s.Insert("b") }, "abc", 2},
		{"backspace multibyte", "héllo", 3, func(s *State) { s.Backspace() }, "hllo", 1},
		{"backspace at start", "abc", 0, func(s *State) { s.Backspace() }, "abc", 0},
		{"delete", "abc", 1, func(s *State) { s.Delete() }, "ac", 1},
		{"delete at end", "abc", 3, func(s *State) { s.Delete() }, "abc", 3},
		{"left over multibyte", "aé", 3, func(s *State) { s.Left() }, "aé", 1},
		{"right over multibyte", "éa", 0, func(s *State) { s.Right() }, "éa", 2},
		{"word left", "foo bar baz", 11, func(s *State) { s.WordLeft() }, "foo bar baz", 8},
		{"word left skips spaces", "foo bar  ", 9, func(s *State) { s.WordLeft() }, "foo bar  ", 4},
		{"word right", "foo bar", 0, func(s *State) { s.WordRight() }, "foo bar", 3},
		{"word right from gap", "foo bar", 3, func(s *State) { s.WordRight() }, "foo bar", 7},
		{"line start", "one\ntwo", 6, func(s *State) { s.LineStart() }, "one\ntwo", 4},
		{"line end", "one\ntwo", 1, func(s *State) { s.LineEnd() }, "one\ntwo", 3},
		{"kill to line start", "one\ntwo", 6, func(s *State) { s.KillToLineStart() }, "one\no", 4},
		{"kill to line start joins lines", "one\ntwo", 4, func(s *State) { s.KillToLineStart() }, "onetwo", 3},
		{"kill to line end", "one\ntwo", 1, func(s *State) { s.KillToLineEnd() }, "o\ntwo", 1},
		{"kill to line end joins lines", "one\ntwo", 3, func(s *State) { s.KillToLineEnd() }, "onetwo", 3},
		{"delete word backward", "foo bar", 7, func(s *State) { s.DeleteWordBackward() }, "foo ", 4},
		{"delete word backward with punctuation", "call(arg", 8, func(s *State) { s.DeleteWordBackward() }, "call(", 5},
		{"replace range", "see ./al", 8, func(s *State) { s.ReplaceRange(4, 8, "./alpha.go") }, "see ./alpha.go", 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{Text: tt.text, Cursor: tt.cursor}
			tt.op(s)
			if s.Text != tt.wantText || s.Cursor != tt.wantCursor {
				t.Errorf("got (%q, %d), want (%q, %d)", s.Text, s.Cursor, tt.wantText, tt.wantCursor)
			}
		})
	}
}

func TestStateToken(t *testing.T) {
	tests := []struct {
		text   string
		cursor int
		start  int
		end    int
		token  string
	}{
		{"look at ./src/ma", 16, 8, 16, "./src/ma"},
		{"look at ./src/ma", 10, 8, 16, "./src/ma"},
		{"look ", 5, 5, 5, ""},
		{"", 0, 0, 0, ""},
	}
	for _, tt := range tests {
		s := &State{Text: tt.text, Cursor: tt.cursor}
		start, end, token := s.Token()
		if start != tt.start || end != tt.end || token != tt.token {
			t.Errorf("Token(%q@%d) = (%d, %d, %q), want (%d, %d, %q)",
				tt.text, tt.cursor, start, end, token, tt.start, tt.end, tt.token)
		}
	}
}
