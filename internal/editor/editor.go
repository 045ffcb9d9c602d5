package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/samsaffron/term-chat/internal/terminal"
)

// Action tells the driver what a keystroke asks for beyond editing.
type Action int

const (
	ActionNone Action = iota
	ActionSubmit
	ActionInterrupt
	ActionExit
	ActionCancel
	ActionPaste
	ActionEditor
	ActionPicker
	ActionRedraw
)

func (a Action) String() string {
	switch a {
	case ActionSubmit:
		return "submit"
	case ActionInterrupt:
		return "interrupt"
	case ActionExit:
		return "exit"
	case ActionCancel:
		return "cancel"
	case ActionPaste:
		return "paste"
	case ActionEditor:
		return "editor"
	case ActionPicker:
		return "picker"
	case ActionRedraw:
		return "redraw"
	}
	return "none"
}

// Result is the outcome of one keystroke. Text is the submitted entry for
// ActionSubmit.
type Result struct {
	Action Action
	Text   string
}

// Editor is the prompt line editor. It is owned by the driver goroutine and
// is not safe for concurrent use.
type Editor struct {
	state    State
	keys     KeyMap
	menu     Menu
	history  *History
	registry *Registry
	cwd      string

	// width is the input area width used for vertical motion; it follows the
	// last rendered frame.
	width int
	// goalCol is the display column vertical motion tries to keep; -1 when
	// unset.
	goalCol int
}

// Option configures an Editor.
type Option func(*Editor)

// WithKeyMap replaces the default keybindings.
func WithKeyMap(k KeyMap) Option {
	return func(e *Editor) { e.keys = k }
}

// WithHistory sets the entry history used by Up and Down.
func WithHistory(h *History) Option {
	return func(e *Editor) {
		if h != nil {
			e.history = h
		}
	}
}

// WithRegistry sets the slash command registry.
func WithRegistry(r *Registry) Option {
	return func(e *Editor) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithCWD sets the directory relative paths complete against.
func WithCWD(dir string) Option {
	return func(e *Editor) { e.cwd = dir }
}

// New creates an empty editor.
func New(opts ...Option) *Editor {
	e := &Editor{
		keys:     DefaultKeyMap(),
		registry: NewRegistry(nil),
		cwd:      ".",
		width:    defaultInputWidth,
		goalCol:  -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.history == nil {
		e.history = NewHistory(nil, e.registry.IsBuiltinEntry)
	}
	return e
}

const defaultInputWidth = 77

// Text returns the buffer.
func (e *Editor) Text() string { return e.state.Text }

// State returns a copy of the buffer and cursor.
func (e *Editor) State() State { return e.state }

// Menu returns the open menu.
func (e *Editor) Menu() Menu { return e.menu }

// History returns the entry history.
func (e *Editor) History() *History { return e.history }

// Registry returns the slash command registry.
func (e *Editor) Registry() *Registry { return e.registry }

// KeyMap returns the active keybindings.
func (e *Editor) KeyMap() KeyMap { return e.keys }

// SetText replaces the buffer, closes menus and moves the cursor to the end.
func (e *Editor) SetText(text string) {
	e.state.SetText(text)
	e.menu.close()
	e.goalCol = -1
}

// Reset clears the buffer and ends history navigation.
func (e *Editor) Reset() {
	e.state.Reset()
	e.menu.close()
	e.history.Reset()
	e.goalCol = -1
}

// SetWidth sets the input area width used for vertical motion.
func (e *Editor) SetWidth(width int) {
	e.width = max(width, 1)
}

// HandlePaste inserts pasted text verbatim, newlines included.
func (e *Editor) HandlePaste(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	e.menu.close()
	e.state.Insert(text)
	e.goalCol = -1
}

// HandleKey applies one keystroke. Global chords come first, then chords of
// the open menu, then editing chords, then character insertion.
func (e *Editor) HandleKey(k terminal.Key) Result {
	switch {
	case key.Matches(k, e.keys.Interrupt):
		return Result{Action: ActionInterrupt}
	case key.Matches(k, e.keys.EndOfInput):
		if e.state.Text == "" {
			return Result{Action: ActionExit}
		}
		e.edit(e.state.Delete)
		return Result{}
	case key.Matches(k, e.keys.Paste):
		return Result{Action: ActionPaste}
	}

	if e.menu.Open() {
		if r, ok := e.handleMenuKey(k); ok {
			return r
		}
	}
	if r, ok := e.handleEditKey(k); ok {
		return r
	}
	if k.Printable() {
		e.insert(string(k.Rune))
	}
	return Result{}
}

func (e *Editor) handleMenuKey(k terminal.Key) (Result, bool) {
	switch {
	case key.Matches(k, e.keys.MenuUp):
		e.menu.move(-1)
		e.previewIfCycling()
	case key.Matches(k, e.keys.MenuDown):
		e.menu.move(1)
		e.previewIfCycling()
	case key.Matches(k, e.keys.MenuNext):
		e.tab(1)
	case key.Matches(k, e.keys.MenuPrev):
		e.tab(-1)
	case key.Matches(k, e.keys.MenuAccept):
		return e.accept(), true
	case key.Matches(k, e.keys.MenuClose):
		e.menu.close()
	default:
		return Result{}, false
	}
	return Result{}, true
}

func (e *Editor) handleEditKey(k terminal.Key) (Result, bool) {
	vertical := false
	switch {
	case key.Matches(k, e.keys.Submit):
		return e.submit(), true
	case key.Matches(k, e.keys.Newline):
		e.insert("\n")
	case key.Matches(k, e.keys.Complete):
		e.openCompletion()
	case key.Matches(k, e.keys.Cancel):
		return Result{Action: ActionCancel}, true
	case key.Matches(k, e.keys.ExternalEditor):
		return Result{Action: ActionEditor}, true
	case key.Matches(k, e.keys.HistorySearch):
		return Result{Action: ActionPicker}, true
	case key.Matches(k, e.keys.Redraw):
		return Result{Action: ActionRedraw}, true

	case key.Matches(k, e.keys.WordLeft):
		e.state.WordLeft()
	case key.Matches(k, e.keys.WordRight):
		e.state.WordRight()
	case key.Matches(k, e.keys.Left):
		e.state.Left()
	case key.Matches(k, e.keys.Right):
		e.state.Right()
	case key.Matches(k, e.keys.LineStart):
		e.state.LineStart()
	case key.Matches(k, e.keys.LineEnd):
		e.state.LineEnd()
	case key.Matches(k, e.keys.Up):
		vertical = e.up()
	case key.Matches(k, e.keys.Down):
		vertical = e.down()

	case key.Matches(k, e.keys.DeleteWord):
		e.edit(func() bool { e.state.DeleteWordBackward(); return true })
	case key.Matches(k, e.keys.Backspace):
		e.edit(e.state.Backspace)
	case key.Matches(k, e.keys.Delete):
		e.edit(e.state.Delete)
	case key.Matches(k, e.keys.KillToLineStart):
		e.edit(func() bool { e.state.KillToLineStart(); return true })
	case key.Matches(k, e.keys.KillToLineEnd):
		e.edit(func() bool { e.state.KillToLineEnd(); return true })
	default:
		return Result{}, false
	}
	if !vertical {
		e.goalCol = -1
	}
	return Result{}, true
}

func (e *Editor) insert(text string) {
	e.state.Insert(text)
	e.goalCol = -1
	e.refreshMenu()
}

// edit runs a deleting operation and refilters the menu if it changed text.
func (e *Editor) edit(op func() bool) {
	if op() {
		e.refreshMenu()
	}
}

// submit returns the buffer as an entry. A trailing backslash before the
// cursor continues the entry on a new line instead.
func (e *Editor) submit() Result {
	if e.state.Cursor > 0 && e.state.Text[e.state.Cursor-1] == '\\' {
		e.state.ReplaceRange(e.state.Cursor-1, e.state.Cursor, "\n")
		return Result{}
	}
	text := e.state.Text
	if strings.TrimSpace(text) == "" {
		return Result{}
	}
	e.history.Add(text)
	e.Reset()
	return Result{Action: ActionSubmit, Text: text}
}

// commandQuery reports whether the buffer is a bare slash command prefix.
func (e *Editor) commandQuery() (string, bool) {
	text := e.state.Text
	if !strings.HasPrefix(text, "/") || strings.ContainsAny(text, " \t\n") {
		return "", false
	}
	return text, true
}

// refreshMenu refilters the menu after an edit, opening the command menu
// for a slash prefix and closing whatever no longer matches.
func (e *Editor) refreshMenu() {
	if query, ok := e.commandQuery(); ok {
		items := commandItems(e.registry.Filter(query))
		if len(items) == 0 {
			e.menu.close()
			return
		}
		e.menu = Menu{Kind: MenuCommands, Items: items}
		return
	}
	if e.menu.Kind == MenuFiles {
		if !e.loadFileMenu() {
			e.menu.close()
		}
		return
	}
	e.menu.close()
}

// loadFileMenu lists completions for the token under the cursor.
func (e *Editor) loadFileMenu() bool {
	start, end, token := e.state.Token()
	if !IsPathLike(token) {
		return false
	}
	items := fileItems(CompleteFiles(e.cwd, token))
	if len(items) == 0 {
		return false
	}
	e.menu = Menu{Kind: MenuFiles, Items: items, start: start, end: end}
	return true
}

// openCompletion handles Tab with no menu showing.
func (e *Editor) openCompletion() {
	if _, ok := e.commandQuery(); ok {
		e.refreshMenu()
	} else if !e.loadFileMenu() {
		return
	}
	if e.menu.Open() {
		e.tab(1)
	}
}

// tab applies a single match, or previews the selection and cycles on the
// following presses.
func (e *Editor) tab(delta int) {
	if len(e.menu.Items) == 1 {
		e.apply(e.menu.Items[0])
		e.menu.close()
		return
	}
	if e.menu.previewing {
		e.menu.move(delta)
	}
	e.preview()
}

func (e *Editor) previewIfCycling() {
	if e.menu.previewing {
		e.preview()
	}
}

func (e *Editor) preview() {
	item, ok := e.menu.Current()
	if !ok {
		return
	}
	e.apply(item)
	e.menu.previewing = true
}

// apply writes an item into the buffer without refiltering.
func (e *Editor) apply(item MenuItem) {
	switch e.menu.Kind {
	case MenuCommands:
		e.state.SetText(item.Insert)
	case MenuFiles:
		e.state.ReplaceRange(e.menu.start, e.menu.end, item.Insert)
		e.menu.end = e.menu.start + len(item.Insert)
	}
}

// accept handles Enter on an open menu. A command without required
// arguments runs at once; one with arguments waits for them.
func (e *Editor) accept() Result {
	item, _ := e.menu.Current()
	kind := e.menu.Kind
	e.apply(item)
	e.menu.close()
	if kind != MenuCommands {
		return Result{}
	}
	if item.NeedsArgs {
		e.state.Insert(" ")
		return Result{}
	}
	return e.submit()
}

// up moves the cursor one display row up, or to the previous history entry
// from the first row. It reports whether the goal column should be kept.
func (e *Editor) up() bool {
	l := NewLayout(e.state.Text, e.width)
	pos := l.Locate(e.state.Cursor)
	if pos.Row == 0 {
		if entry, ok := e.history.Prev(e.state.Text); ok {
			e.SetText(entry)
		}
		return false
	}
	if e.goalCol < 0 {
		e.goalCol = pos.Col
	}
	e.state.Cursor = l.OffsetAt(pos.Row-1, e.goalCol)
	return true
}

// down is up's mirror image, walking toward newer entries from the last row.
func (e *Editor) down() bool {
	l := NewLayout(e.state.Text, e.width)
	pos := l.Locate(e.state.Cursor)
	if pos.Row >= l.Height()-1 {
		if entry, ok := e.history.Next(); ok {
			e.SetText(entry)
		}
		return false
	}
	if e.goalCol < 0 {
		e.goalCol = pos.Col
	}
	e.state.Cursor = l.OffsetAt(pos.Row+1, e.goalCol)
	return true
}
