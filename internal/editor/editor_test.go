package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samsaffron/term-chat/internal/terminal"
)

func runes(s string) []terminal.Key {
	keys := make([]terminal.Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, terminal.Key{Type: terminal.KeyRune, Rune: r})
	}
	return keys
}

func typeText(e *Editor, s string) {
	for _, k := range runes(s) {
		e.HandleKey(k)
	}
}

var (
	keyEnter     = terminal.Key{Type: terminal.KeyEnter}
	keyTab       = terminal.Key{Type: terminal.KeyTab}
	keyShiftTab  = terminal.Key{Type: terminal.KeyTab, Shift: true}
	keyEsc       = terminal.Key{Type: terminal.KeyEscape}
	keyUp        = terminal.Key{Type: terminal.KeyUp}
	keyDown      = terminal.Key{Type: terminal.KeyDown}
	keyBackspace = terminal.Key{Type: terminal.KeyBackspace}
	keyAltEnter  = terminal.Key{Type: terminal.KeyEnter, Alt: true}
)

func ctrl(r rune) terminal.Key {
	return terminal.Key{Type: terminal.KeyRune, Rune: r, Ctrl: true}
}

func TestHandleKeyGlobalChords(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  terminal.Key
		want Action
	}{
		{"interrupt", "draft", ctrl('c'), ActionInterrupt},
		{"end of input on empty buffer", "", ctrl('d'), ActionExit},
		{"ctrl+d deletes with text", "ab", ctrl('d'), ActionNone},
		{"paste", "", ctrl('v'), ActionPaste},
		{"editor", "", ctrl('g'), ActionEditor},
		{"picker", "", ctrl('r'), ActionPicker},
		{"redraw", "", ctrl('l'), ActionRedraw},
		{"cancel", "", keyEsc, ActionCancel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			e.SetText(tt.text)
			if got := e.HandleKey(tt.key); got.Action != tt.want {
				t.Errorf("HandleKey(%s) = %s, want %s", tt.key, got.Action, tt.want)
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	e := New()
	if got := e.HandleKey(keyEnter); got.Action != ActionNone {
		t.Fatalf("empty submit = %s, want none", got.Action)
	}

	typeText(e, "hi there")
	got := e.HandleKey(keyEnter)
	if got.Action != ActionSubmit || got.Text != "hi there" {
		t.Fatalf("submit = %+v", got)
	}
	if e.Text() != "" {
		t.Errorf("buffer after submit = %q, want empty", e.Text())
	}
	if entries := e.History().Entries(); len(entries) != 1 || entries[0] != "hi there" {
		t.Errorf("history = %q", entries)
	}
}

func TestNewlineChords(t *testing.T) {
	e := New()
	typeText(e, "a")
	e.HandleKey(keyAltEnter)
	typeText(e, "b")
	e.HandleKey(ctrl('j'))
	typeText(e, `c\`)
	if got := e.HandleKey(keyEnter); got.Action != ActionNone {
		t.Fatalf("backslash enter = %s, want none", got.Action)
	}
	if e.Text() != "a\nb\nc\n" {
		t.Errorf("text = %q", e.Text())
	}
}

func TestHandlePasteKeepsNewlines(t *testing.T) {
	e := New()
	typeText(e, "/he")
	e.HandlePaste("x\r\ny\rz")
	if e.Text() != "/hex\ny\nz" {
		t.Errorf("text = %q", e.Text())
	}
	if e.Menu().Open() {
		t.Error("paste left the command menu open")
	}
}

func TestCommandMenu(t *testing.T) {
	t.Run("opens on slash", func(t *testing.T) {
		e := New()
		typeText(e, "/")
		m := e.Menu()
		if m.Kind != MenuCommands || len(m.Items) != len(BuiltinCommands()) {
			t.Fatalf("menu = %+v", m)
		}
	})

	t.Run("tab applies a single match", func(t *testing.T) {
		e := New()
		typeText(e, "/he")
		e.HandleKey(keyTab)
		if e.Text() != "/help" || e.Menu().Open() {
			t.Errorf("text = %q, menu open = %v", e.Text(), e.Menu().Open())
		}
	})

	t.Run("tab previews and cycles", func(t *testing.T) {
		e := New()
		typeText(e, "/")
		e.HandleKey(keyTab)
		if e.Text() != "/help" || !e.Menu().Open() {
			t.Fatalf("first tab: text = %q, open = %v", e.Text(), e.Menu().Open())
		}
		e.HandleKey(keyTab)
		if e.Text() != "/clear" {
			t.Errorf("second tab: text = %q, want /clear", e.Text())
		}
		e.HandleKey(keyShiftTab)
		if e.Text() != "/help" {
			t.Errorf("shift+tab: text = %q, want /help", e.Text())
		}
		e.HandleKey(keyEsc)
		if e.Menu().Open() || e.Text() != "/help" {
			t.Errorf("esc: text = %q, open = %v", e.Text(), e.Menu().Open())
		}
	})

	t.Run("non-matching edit closes", func(t *testing.T) {
		e := New()
		typeText(e, "/zzz")
		if e.Menu().Open() {
			t.Error("menu open for /zzz")
		}
		e2 := New()
		typeText(e2, "/help ")
		if e2.Menu().Open() {
			t.Error("menu open after a space")
		}
	})

	t.Run("backspace refilters", func(t *testing.T) {
		e := New()
		typeText(e, "/zzz")
		for range 3 {
			e.HandleKey(keyBackspace)
		}
		if !e.Menu().Open() {
			t.Error("menu closed for /")
		}
	})

	t.Run("enter runs a command without arguments", func(t *testing.T) {
		e := New()
		typeText(e, "/q")
		got := e.HandleKey(keyEnter)
		if got.Action != ActionSubmit || got.Text != "/quit" {
			t.Errorf("enter = %+v", got)
		}
	})

	t.Run("enter waits for required arguments", func(t *testing.T) {
		e := New()
		typeText(e, "/attach")
		got := e.HandleKey(keyEnter)
		if got.Action != ActionNone || e.Text() != "/attach " || e.Menu().Open() {
			t.Errorf("enter = %+v, text = %q", got, e.Text())
		}
	})

	t.Run("arrows move the selection", func(t *testing.T) {
		e := New()
		typeText(e, "/")
		e.HandleKey(keyDown)
		e.HandleKey(keyDown)
		e.HandleKey(keyUp)
		if got := e.Menu().Selected; got != 1 {
			t.Errorf("selected = %d, want 1", got)
		}
		if e.Text() != "/" {
			t.Errorf("arrows changed the buffer: %q", e.Text())
		}
	})
}

func TestFileMenu(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"alpha.go", "alps.txt", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "beta"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Run("multiple matches preview and cycle", func(t *testing.T) {
		e := New(WithCWD(dir))
		typeText(e, "read ./al")
		e.HandleKey(keyTab)
		if e.Text() != "read ./alpha.go" || e.Menu().Kind != MenuFiles {
			t.Fatalf("first tab: text = %q, menu = %v", e.Text(), e.Menu().Kind)
		}
		e.HandleKey(keyTab)
		if e.Text() != "read ./alps.txt" {
			t.Errorf("second tab: text = %q", e.Text())
		}
		e.HandleKey(keyEnter)
		if e.Menu().Open() || e.Text() != "read ./alps.txt" {
			t.Errorf("enter: text = %q, open = %v", e.Text(), e.Menu().Open())
		}
	})

	t.Run("single match applies", func(t *testing.T) {
		e := New(WithCWD(dir))
		typeText(e, "./b")
		e.HandleKey(keyTab)
		if e.Text() != "./beta/" || e.Menu().Open() {
			t.Errorf("text = %q, open = %v", e.Text(), e.Menu().Open())
		}
	})

	t.Run("plain words do not complete", func(t *testing.T) {
		e := New(WithCWD(dir))
		typeText(e, "al")
		e.HandleKey(keyTab)
		if e.Text() != "al" || e.Menu().Open() {
			t.Errorf("text = %q, open = %v", e.Text(), e.Menu().Open())
		}
	})

	t.Run("typing a space closes", func(t *testing.T) {
		e := New(WithCWD(dir))
		typeText(e, "./al")
		e.HandleKey(keyTab)
		typeText(e, " ")
		if e.Menu().Open() {
			t.Error("menu still open")
		}
	})
}

func TestHistoryNavigation(t *testing.T) {
	reg := NewRegistry(map[string]string{"review": "Review this: {{args}}"})
	h := NewHistory([]string{"first", "/clear", "/review main.go", "second"}, reg.IsBuiltinEntry)
	e := New(WithRegistry(reg), WithHistory(h))
	typeText(e, "draft")

	steps := []struct {
		key  terminal.Key
		want string
	}{
		{keyUp, "second"},
		{keyUp, "/review main.go"},
		{keyUp, "first"},
		{keyUp, "first"},
		{keyDown, "/review main.go"},
		{keyDown, "second"},
		{keyDown, "draft"},
		{keyDown, "draft"},
	}
	for i, step := range steps {
		e.HandleKey(step.key)
		if e.Text() != step.want {
			t.Fatalf("step %d (%s): text = %q, want %q", i, step.key, e.Text(), step.want)
		}
	}
}

func TestVerticalMotionWithinBuffer(t *testing.T) {
	e := New()
	e.SetText("abcdef\nx\nabcdef")

	e.HandleKey(keyUp)
	if got := e.State().Cursor; got != 8 {
		t.Fatalf("after first up cursor = %d, want 8", got)
	}
	e.HandleKey(keyUp)
	if got := e.State().Cursor; got != 6 {
		t.Fatalf("after second up cursor = %d, want 6 (goal column kept)", got)
	}
	e.HandleKey(keyDown)
	e.HandleKey(keyDown)
	if got := e.State().Cursor; got != 15 {
		t.Errorf("after down down cursor = %d, want 15", got)
	}
	if e.History().Navigating() {
		t.Error("vertical motion inside the buffer walked history")
	}
}
