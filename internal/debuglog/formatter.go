package debuglog

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samsaffron/term-chat/internal/ui"
)

// maxValueWidth truncates long attribute values in formatted output.
const maxValueWidth = 80

// FormatEntries writes entries one per line.
func FormatEntries(w io.Writer, entries []Entry, styles *ui.Styles) {
	if len(entries) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("Debug log is empty."))
		return
	}
	for _, e := range entries {
		FormatEntry(w, e, styles)
	}
}

// FormatEntry writes a compact one-line rendition of e.
func FormatEntry(w io.Writer, e Entry, styles *ui.Styles) {
	timeStr := "--:--:--.---"
	if !e.Time.IsZero() {
		timeStr = e.Time.Local().Format("15:04:05.000")
	}

	var b strings.Builder
	for _, k := range e.AttrKeys() {
		if k == "pid" {
			continue
		}
		v := strings.ReplaceAll(fmt.Sprint(e.Attrs[k]), "\n", `\n`)
		b.WriteString(" ")
		b.WriteString(styles.Muted.Render(k + "="))
		b.WriteString(ui.TruncateLine(v, maxValueWidth, "..."))
	}

	fmt.Fprintf(w, "[%s] %s %s%s\n",
		styles.Muted.Render(timeStr),
		levelStyle(e.Level, styles).Render(fmt.Sprintf("%-5s", e.Level)),
		e.Msg,
		b.String(),
	)
}

func levelStyle(level string, styles *ui.Styles) lipgloss.Style {
	switch level {
	case "ERROR":
		return styles.Error
	case "WARN":
		return styles.Warning
	case "INFO":
		return styles.Success
	default:
		return styles.Muted
	}
}
