package editor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the editor keybindings.
type KeyMap struct {
	// Global
	Interrupt  key.Binding
	EndOfInput key.Binding
	Paste      key.Binding

	// Menu
	MenuUp     key.Binding
	MenuDown   key.Binding
	MenuNext   key.Binding
	MenuPrev   key.Binding
	MenuAccept key.Binding
	MenuClose  key.Binding

	// Editing
	Submit          key.Binding
	Newline         key.Binding
	Complete        key.Binding
	Left            key.Binding
	Right           key.Binding
	WordLeft        key.Binding
	WordRight       key.Binding
	LineStart       key.Binding
	LineEnd         key.Binding
	Up              key.Binding
	Down            key.Binding
	Backspace       key.Binding
	Delete          key.Binding
	KillToLineStart key.Binding
	KillToLineEnd   key.Binding
	DeleteWord      key.Binding
	Cancel          key.Binding

	// Hand-offs
	ExternalEditor key.Binding
	HistorySearch  key.Binding
	Redraw         key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "interrupt"),
		),
		EndOfInput: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "exit"),
		),
		Paste: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste"),
		),

		MenuUp: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
		),
		MenuDown: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
		),
		MenuNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		MenuPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
		),
		MenuAccept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		MenuClose: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("ctrl+j", "alt+enter", "shift+enter"),
			key.WithHelp("alt+enter", "newline"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete path"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "ctrl+b"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "ctrl+f"),
		),
		WordLeft: key.NewBinding(
			key.WithKeys("alt+left", "ctrl+left", "alt+b"),
		),
		WordRight: key.NewBinding(
			key.WithKeys("alt+right", "ctrl+right", "alt+f"),
		),
		LineStart: key.NewBinding(
			key.WithKeys("home", "ctrl+a"),
		),
		LineEnd: key.NewBinding(
			key.WithKeys("end", "ctrl+e"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "next"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace", "ctrl+h"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete"),
		),
		KillToLineStart: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "clear line"),
		),
		KillToLineEnd: key.NewBinding(
			key.WithKeys("ctrl+k"),
		),
		DeleteWord: key.NewBinding(
			key.WithKeys("ctrl+w", "alt+backspace"),
			key.WithHelp("ctrl+w", "delete word"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),

		ExternalEditor: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "editor"),
		),
		HistorySearch: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "search history"),
		),
		Redraw: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "redraw"),
		),
	}
}

// ShortHelp lists the bindings shown in /help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Submit, k.Newline, k.Complete, k.Cancel, k.Interrupt, k.EndOfInput,
		k.Paste, k.ExternalEditor, k.HistorySearch, k.Redraw,
		k.KillToLineStart, k.DeleteWord,
	}
}
