package editor

// History walks previously submitted entries, oldest first. The draft being
// edited when navigation starts is stashed and comes back when the walk
// moves past the newest entry.
type History struct {
	entries []string
	pos     int
	draft   string
	skip    func(string) bool
}

// NewHistory creates a history over entries. skip filters entries out of
// navigation; nil keeps all of them.
func NewHistory(entries []string, skip func(string) bool) *History {
	return &History{entries: append([]string(nil), entries...), pos: -1, skip: skip}
}

// Add appends a submitted entry and ends any walk in progress. Repeating the
// previous entry is not recorded twice.
func (h *History) Add(entry string) {
	h.Reset()
	if entry == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
}

// Replace swaps the whole entry list, for example after loading from disk.
func (h *History) Replace(entries []string) {
	h.entries = append(h.entries[:0:0], entries...)
	h.Reset()
}

// Entries returns the entries, oldest first.
func (h *History) Entries() []string {
	return h.entries
}

// Reset ends the walk and forgets the stashed draft.
func (h *History) Reset() {
	h.pos = -1
	h.draft = ""
}

// Navigating reports whether a walk is in progress.
func (h *History) Navigating() bool {
	return h.pos >= 0
}

// Prev moves to the next older entry. current is stashed as the draft when
// the walk begins. It reports false when there is nothing older.
func (h *History) Prev(current string) (string, bool) {
	i := len(h.entries) - 1
	if h.pos >= 0 {
		i = h.pos - 1
	}
	for i >= 0 && h.skipped(h.entries[i]) {
		i--
	}
	if i < 0 {
		return "", false
	}
	if h.pos < 0 {
		h.draft = current
	}
	h.pos = i
	return h.entries[i], true
}

// Next moves to the next newer entry, or back to the draft after the
// newest. It reports false when no walk is in progress.
func (h *History) Next() (string, bool) {
	if h.pos < 0 {
		return "", false
	}
	i := h.pos + 1
	for i < len(h.entries) && h.skipped(h.entries[i]) {
		i++
	}
	if i >= len(h.entries) {
		draft := h.draft
		h.Reset()
		return draft, true
	}
	h.pos = i
	return h.entries[i], true
}

func (h *History) skipped(entry string) bool {
	return h.skip != nil && h.skip(entry)
}
