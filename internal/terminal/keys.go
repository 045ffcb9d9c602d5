package terminal

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

// KeyType identifies special keys. Printable input and control chords use
// KeyRune.
type KeyType int

const (
	KeyRune KeyType = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPgUp
	KeyPgDown
	KeyInsert
)

var keyNames = map[KeyType]string{
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyEscape:    "esc",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPgUp:      "pgup",
	KeyPgDown:    "pgdown",
	KeyInsert:    "insert",
}

// Key is one decoded keystroke.
type Key struct {
	Type  KeyType
	Rune  rune
	Ctrl  bool
	Alt   bool
	Shift bool
}

// String renders the key the way key bindings name it: "ctrl+a",
// "alt+enter", "shift+tab", "x".
func (k Key) String() string {
	var b strings.Builder
	if k.Ctrl {
		b.WriteString("ctrl+")
	}
	if k.Alt {
		b.WriteString("alt+")
	}
	if k.Shift {
		b.WriteString("shift+")
	}
	if k.Type == KeyRune {
		if k.Rune == ' ' {
			b.WriteString("space")
		} else {
			b.WriteRune(k.Rune)
		}
		return b.String()
	}
	b.WriteString(keyNames[k.Type])
	return b.String()
}

// Printable reports whether the key inserts its rune into text.
func (k Key) Printable() bool {
	return k.Type == KeyRune && !k.Ctrl && !k.Alt && k.Rune >= ' '
}

// EventKind tags an input Event.
type EventKind int

const (
	EventKey EventKind = iota
	EventPaste
	EventResize
	EventCursorPosition
)

// Event is one unit of terminal input.
type Event struct {
	Kind EventKind
	Key  Key
	// Text is the pasted content for EventPaste.
	Text string
	// Width and Height are set for EventResize.
	Width, Height int
	// Row and Col are the 0-indexed cursor position for EventCursorPosition.
	Row, Col int
}

var (
	pasteStart = []byte("\x1b[200~")
	pasteEnd   = []byte("\x1b[201~")
)

// maxPendingSequence bounds how long an unterminated escape sequence is held
// waiting for more bytes before it is dropped.
const maxPendingSequence = 64

// Decoder turns raw terminal bytes into events. It keeps state across Feed
// calls for escape sequences and bracketed pastes split over reads.
type Decoder struct {
	pending []byte
	pasting bool
	paste   bytes.Buffer
}

// Feed decodes b and returns the complete events it contains.
func (d *Decoder) Feed(b []byte) []Event {
	data := append(d.pending, b...)
	d.pending = nil

	var events []Event
	i := 0
	for i < len(data) {
		if d.pasting {
			idx := bytes.Index(data[i:], pasteEnd)
			if idx < 0 {
				keep := partialSuffix(data[i:], pasteEnd)
				d.paste.Write(data[i : len(data)-keep])
				d.pending = append([]byte(nil), data[len(data)-keep:]...)
				return events
			}
			d.paste.Write(data[i : i+idx])
			events = append(events, Event{Kind: EventPaste, Text: normalizePaste(d.paste.String())})
			d.paste.Reset()
			d.pasting = false
			i += idx + len(pasteEnd)
			continue
		}

		if data[i] == 0x1b {
			ev, size, ok := d.decodeEscape(data[i:])
			if !ok {
				if len(data)-i <= maxPendingSequence {
					d.pending = append([]byte(nil), data[i:]...)
				}
				return events
			}
			if ev != nil {
				events = append(events, *ev)
			}
			i += size
			continue
		}

		k, size, ok := decodeSingle(data[i:])
		if !ok {
			d.pending = append([]byte(nil), data[i:]...)
			return events
		}
		events = append(events, Event{Kind: EventKey, Key: k})
		i += size
	}
	return events
}

// decodeEscape decodes a sequence starting with ESC. ok is false when the
// sequence is incomplete; a nil event means the sequence was consumed but
// carries nothing to report.
func (d *Decoder) decodeEscape(data []byte) (*Event, int, bool) {
	if len(data) == 1 {
		return keyEvent(Key{Type: KeyEscape}), 1, true
	}

	switch data[1] {
	case '[':
		if bytes.HasPrefix(data, pasteStart) {
			d.pasting = true
			return nil, len(pasteStart), true
		}
		if len(data) < len(pasteStart) && bytes.HasPrefix(pasteStart, data) {
			return nil, 0, false
		}
		for j := 2; j < len(data); j++ {
			if c := data[j]; c >= 0x40 && c <= 0x7e {
				return decodeCSI(string(data[2:j]), c), j + 1, true
			}
		}
		return nil, 0, false

	case 'O':
		if len(data) < 3 {
			return nil, 0, false
		}
		if t, ok := finalKeys[data[2]]; ok {
			return keyEvent(Key{Type: t}), 3, true
		}
		return nil, 3, true

	case 0x1b:
		return keyEvent(Key{Type: KeyEscape}), 1, true
	}

	k, size, ok := decodeSingle(data[1:])
	if !ok {
		return nil, 0, false
	}
	k.Alt = true
	return keyEvent(k), 1 + size, true
}

// decodeSingle decodes one control byte or UTF-8 rune.
func decodeSingle(data []byte) (Key, int, bool) {
	c := data[0]
	switch {
	case c == '\r':
		return Key{Type: KeyEnter}, 1, true
	case c == '\t':
		return Key{Type: KeyTab}, 1, true
	case c == 0x7f || c == 0x08:
		return Key{Type: KeyBackspace}, 1, true
	case c == 0x00:
		return Key{Type: KeyRune, Rune: ' ', Ctrl: true}, 1, true
	case c < 0x1b:
		return Key{Type: KeyRune, Rune: rune(c) + 0x60, Ctrl: true}, 1, true
	case c < 0x20:
		return Key{Type: KeyRune, Rune: rune(c) + 0x40, Ctrl: true}, 1, true
	}
	if !utf8.FullRune(data) {
		return Key{}, 0, false
	}
	r, size := utf8.DecodeRune(data)
	return Key{Type: KeyRune, Rune: r}, size, true
}

var finalKeys = map[byte]KeyType{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
}

var tildeKeys = map[int]KeyType{
	1: KeyHome,
	2: KeyInsert,
	3: KeyDelete,
	4: KeyEnd,
	5: KeyPgUp,
	6: KeyPgDown,
	7: KeyHome,
	8: KeyEnd,
}

func decodeCSI(params string, final byte) *Event {
	nums := parseParams(params)
	param := func(i, def int) int {
		if i < len(nums) && nums[i] > 0 {
			return nums[i]
		}
		return def
	}

	switch final {
	case 'A', 'B', 'C', 'D', 'H', 'F':
		k := Key{Type: finalKeys[final]}
		applyModifier(&k, param(1, 1))
		return keyEvent(k)

	case 'Z':
		return keyEvent(Key{Type: KeyTab, Shift: true})

	case '~':
		if param(0, 0) == 27 {
			// xterm modifyOtherKeys: CSI 27 ; mod ; code ~
			k := codepointKey(param(2, 0))
			applyModifier(&k, param(1, 1))
			return keyEvent(k)
		}
		t, ok := tildeKeys[param(0, 0)]
		if !ok {
			return nil
		}
		k := Key{Type: t}
		applyModifier(&k, param(1, 1))
		return keyEvent(k)

	case 'u':
		k := codepointKey(param(0, 0))
		applyModifier(&k, param(1, 1))
		return keyEvent(k)

	case 'R':
		if len(nums) == 2 {
			return &Event{Kind: EventCursorPosition, Row: param(0, 1) - 1, Col: param(1, 1) - 1}
		}
	}
	return nil
}

func codepointKey(code int) Key {
	switch code {
	case 13:
		return Key{Type: KeyEnter}
	case 9:
		return Key{Type: KeyTab}
	case 127, 8:
		return Key{Type: KeyBackspace}
	case 27:
		return Key{Type: KeyEscape}
	}
	return Key{Type: KeyRune, Rune: rune(code)}
}

// applyModifier decodes an xterm modifier parameter (1 + bitmask).
func applyModifier(k *Key, mod int) {
	bits := mod - 1
	if bits <= 0 {
		return
	}
	k.Shift = k.Shift || bits&1 != 0
	k.Alt = k.Alt || bits&2 != 0
	k.Ctrl = k.Ctrl || bits&4 != 0
}

func parseParams(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	nums := make([]int, len(parts))
	for i, p := range parts {
		if j := strings.IndexByte(p, ':'); j >= 0 {
			p = p[:j]
		}
		nums[i], _ = strconv.Atoi(p)
	}
	return nums
}

func keyEvent(k Key) *Event {
	return &Event{Kind: EventKey, Key: k}
}

// partialSuffix returns the length of the longest suffix of data that is a
// proper prefix of marker.
func partialSuffix(data, marker []byte) int {
	n := len(marker) - 1
	if n > len(data) {
		n = len(data)
	}
	for ; n > 0; n-- {
		if bytes.HasSuffix(data, marker[:n]) {
			return n
		}
	}
	return 0
}

func normalizePaste(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
