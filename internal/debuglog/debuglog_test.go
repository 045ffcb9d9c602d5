package debuglog

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/samsaffron/term-chat/internal/ui"
)

func TestOpenAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.jsonl")
	logger, closeLog, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Debug("print", "rows", 3, "text", "a\nb")
	logger.Warn("transcript area too small")
	logger.Info("session start", "provider", "echo")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A torn line from a crash is skipped.
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	f.WriteString("{\"time\":\n")
	f.Close()

	entries, err := ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Level != "DEBUG" || entries[0].Msg != "print" || entries[0].Attrs["rows"] != float64(3) {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[0].Time.IsZero() {
		t.Error("timestamp not parsed")
	}

	last, err := ReadFile(path, 1)
	if err != nil {
		t.Fatalf("ReadFile tail: %v", err)
	}
	if len(last) != 1 || last[0].Msg != "session start" {
		t.Errorf("tail = %+v", last)
	}
}

func TestOpenEmptyPathDiscards(t *testing.T) {
	logger, closeLog, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Error("dropped")
	if err := closeLog(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestFormatEntry(t *testing.T) {
	var logBuf bytes.Buffer
	New(&logBuf).Warn("reserve", "wanted", 8, "got", 3, "note", "multi\nline")
	entry, ok := ParseLine(bytes.TrimSpace(logBuf.Bytes()))
	if !ok {
		t.Fatalf("ParseLine failed on %q", logBuf.String())
	}

	var out bytes.Buffer
	FormatEntry(&out, entry, ui.NewStyles(io.Discard))
	got := ansi.Strip(out.String())
	for _, want := range []string{"WARN ", "reserve", "got=3", "note=multi\\nline", "wanted=8"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted entry %q missing %q", got, want)
		}
	}
	if strings.Index(got, "got=") > strings.Index(got, "wanted=") {
		t.Errorf("attributes not sorted: %q", got)
	}
}
