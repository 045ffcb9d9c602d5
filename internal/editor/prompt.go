package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/samsaffron/term-chat/internal/output"
	"github.com/samsaffron/term-chat/internal/ui"
)

// StatusInfo is what the status bar under the input shows.
type StatusInfo struct {
	Provider    string
	Model       string
	CWD         string
	Thinking    bool
	Attachments int
	Streaming   bool
}

const (
	promptPrefix       = ui.PromptGlyph + " "
	continuationPrefix = "  "
	prefixWidth        = 2
)

// InputWidth is the width the buffer wraps at for a terminal width. One
// column is kept free so the caret can sit after a full row.
func InputWidth(termWidth int) int {
	return max(termWidth-prefixWidth-1, 1)
}

// Prompt renders an Editor into frames for the output coordinator.
type Prompt struct {
	styles *ui.Styles
	status StatusInfo
}

// NewPrompt creates a renderer using styles.
func NewPrompt(styles *ui.Styles) *Prompt {
	if styles == nil {
		styles = ui.DefaultStyles()
	}
	return &Prompt{styles: styles}
}

// SetStatus replaces the status bar contents.
func (p *Prompt) SetStatus(s StatusInfo) {
	p.status = s
}

// Status returns the status bar contents.
func (p *Prompt) Status() StatusInfo {
	return p.status
}

// Draw renders e at the coordinator's current width and paints it.
func (p *Prompt) Draw(c *output.Coordinator, e *Editor) {
	width, _ := c.Size()
	c.DrawPrompt(p.Frame(e, width))
}

// Frame lays out the input rows, the open menu and the status bar.
func (p *Prompt) Frame(e *Editor, width int) output.Frame {
	inputWidth := InputWidth(width)
	e.SetWidth(inputWidth)
	l := NewLayout(e.state.Text, inputWidth)
	pos := l.Locate(e.state.Cursor)

	lines := make([]string, 0, l.Height()+maxMenuRows+2)
	for i, row := range l.Rows {
		prefix := continuationPrefix
		if i == 0 {
			prefix = p.styles.Prompt.Render(promptPrefix)
		}
		lines = append(lines, prefix+row)
	}
	lines = append(lines, p.menuLines(e.menu, width)...)

	statusRow := len(lines)
	lines = append(lines, p.statusLine(width))

	return output.Frame{
		Lines:           lines,
		CursorRow:       pos.Row,
		CursorCol:       prefixWidth + pos.Col,
		StatusRowOffset: statusRow,
	}
}

func (p *Prompt) menuLines(m Menu, width int) []string {
	if !m.Open() {
		return nil
	}
	first, last := m.window()
	labelWidth := 0
	for _, item := range m.Items[first:last] {
		labelWidth = max(labelWidth, ansi.StringWidth(item.Label))
	}

	lines := make([]string, 0, last-first+1)
	for i := first; i < last; i++ {
		item := m.Items[i]
		label := item.Label + strings.Repeat(" ", labelWidth-ansi.StringWidth(item.Label))
		var line string
		if i == m.Selected {
			line = p.styles.MenuSelected.Render(ui.PromptGlyph + " " + label)
		} else {
			line = "  " + p.styles.MenuItem.Render(label)
		}
		if item.Detail != "" {
			line += "  " + p.styles.MenuDesc.Render(item.Detail)
		}
		lines = append(lines, ansi.Truncate(line, width, ui.EllipsisGlyph))
	}
	if more := len(m.Items) - last; more > 0 {
		lines = append(lines, p.styles.Muted.Render(fmt.Sprintf("  %s %d more", ui.EllipsisGlyph, more)))
	}
	return lines
}

func (p *Prompt) statusLine(width int) string {
	s := p.status
	var parts []string
	switch {
	case s.Provider != "" && s.Model != "":
		parts = append(parts, s.Provider+":"+s.Model)
	case s.Provider != "":
		parts = append(parts, s.Provider)
	case s.Model != "":
		parts = append(parts, s.Model)
	}
	if s.CWD != "" {
		parts = append(parts, shortenHome(s.CWD))
	}
	if s.Thinking {
		parts = append(parts, "thinking")
	}
	if s.Attachments == 1 {
		parts = append(parts, "1 file")
	} else if s.Attachments > 1 {
		parts = append(parts, fmt.Sprintf("%d files", s.Attachments))
	}
	if s.Streaming {
		parts = append(parts, "esc to interrupt")
	}
	line := ansi.Truncate(strings.Join(parts, " · "), max(width-1, 0), ui.EllipsisGlyph)
	return p.styles.Muted.Render(line)
}

func shortenHome(dir string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return dir
	}
	if dir == home {
		return "~"
	}
	if rel, err := filepath.Rel(home, dir); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join("~", rel)
	}
	return dir
}
