package editor

import "strings"

// MenuKind identifies the overlay menu that is open.
type MenuKind int

const (
	MenuNone MenuKind = iota
	MenuCommands
	MenuFiles
)

// MenuItem is one row of an overlay menu.
type MenuItem struct {
	Label  string
	Detail string
	// Insert is the text selecting the item writes into the buffer.
	Insert string
	// NeedsArgs keeps a command from submitting on Enter.
	NeedsArgs bool
}

// Menu is the state of the open overlay.
type Menu struct {
	Kind     MenuKind
	Items    []MenuItem
	Selected int

	// previewing is set once Tab has written the selection into the buffer;
	// further Tabs cycle instead of refiltering.
	previewing bool
	// start and end bound the buffer range a file selection replaces.
	start, end int
}

// maxMenuRows is the number of items shown at once.
const maxMenuRows = 10

// Open reports whether a menu is showing.
func (m Menu) Open() bool {
	return m.Kind != MenuNone && len(m.Items) > 0
}

// Current returns the selected item.
func (m Menu) Current() (MenuItem, bool) {
	if !m.Open() {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

func (m *Menu) move(delta int) {
	if n := len(m.Items); n > 0 {
		m.Selected = ((m.Selected+delta)%n + n) % n
	}
}

func (m *Menu) close() {
	*m = Menu{}
}

// window returns the visible slice of items, keeping the selection inside.
func (m Menu) window() (first, last int) {
	n := len(m.Items)
	if n <= maxMenuRows {
		return 0, n
	}
	first = max(0, m.Selected-maxMenuRows+1)
	return first, first + maxMenuRows
}

func commandItems(cmds []Command) []MenuItem {
	items := make([]MenuItem, len(cmds))
	for i, cmd := range cmds {
		items[i] = MenuItem{
			Label:     "/" + cmd.Name,
			Detail:    cmd.Description,
			Insert:    "/" + cmd.Name,
			NeedsArgs: needsArgs(cmd.Usage),
		}
	}
	return items
}

func fileItems(files []FileCompletion) []MenuItem {
	items := make([]MenuItem, len(files))
	for i, f := range files {
		label := f.Name
		if f.IsDir {
			label += "/"
		}
		items[i] = MenuItem{Label: label, Insert: f.Insert}
	}
	return items
}

// needsArgs reports whether a usage string has a required argument.
func needsArgs(usage string) bool {
	return strings.Contains(usage, "<")
}
