package debuglog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Entry is one parsed log record.
type Entry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
}

// maxLineSize bounds a single log line; longer lines are skipped.
const maxLineSize = 1 << 20

// ReadFile parses the log at path. With tail > 0 only the last tail
// entries are returned. Malformed lines are skipped.
func ReadFile(path string, tail int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		entry, ok := ParseLine(scanner.Bytes())
		if !ok {
			continue
		}
		entries = append(entries, entry)
		if tail > 0 && len(entries) > 2*tail {
			entries = append(entries[:0], entries[len(entries)-tail:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read debug log: %w", err)
	}
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	return entries, nil
}

// ParseLine decodes one JSON log line.
func ParseLine(line []byte) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return Entry{}, false
	}
	var e Entry
	if ts, ok := raw["time"].(string); ok {
		e.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	e.Level, _ = raw["level"].(string)
	e.Msg, _ = raw["msg"].(string)
	delete(raw, "time")
	delete(raw, "level")
	delete(raw, "msg")
	e.Attrs = raw
	return e, true
}

// AttrKeys returns the entry's attribute keys in sorted order.
func (e Entry) AttrKeys() []string {
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
