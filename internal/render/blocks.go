package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samsaffron/term-chat/internal/ui"
)

const (
	maxResultLines = 6
	maxOutputLines = 12
	maxFileLines   = 20
	maxDiffLines   = 40

	resultIndent = "  " + ui.ResultGlyph + "  "
	bodyIndent   = "     "
)

var hunkRe = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// block renders a complete, non-streaming event. The result ends in a
// newline.
func (r *Renderer) block(e Event, width int) string {
	s := r.styles
	switch e.Kind {
	case KindUserPrompt:
		return r.userPrompt(e)
	case KindToolUse:
		return s.ToolBanner.Render(ui.ToolGlyph) + " " + s.ToolBanner.Render(firstLine(e.Text)) + "\n"
	case KindToolResult:
		return r.toolResult(e)
	case KindToolOutput:
		return r.toolOutput(e, width)
	case KindFileReadOutput:
		return r.fileRead(e, width)
	case KindFileDiff:
		return r.fileDiff(e, width)
	case KindInfo:
		return styleLines(s.Muted, ui.InfoGlyph+" "+e.Text) + "\n"
	case KindWarning:
		return styleLines(s.Warning, ui.WarningGlyph+" "+e.Text) + "\n"
	case KindError:
		return styleLines(s.Error, ui.ErrorGlyph+" "+e.Text) + "\n"
	case KindAutoCompact:
		return styleLines(s.Muted, ui.CompactGlyph+" "+e.Text) + "\n"
	}
	return ""
}

func (r *Renderer) userPrompt(e Event) string {
	var b strings.Builder
	for i, line := range strings.Split(strings.TrimRight(e.Text, "\n"), "\n") {
		prefix := "  "
		if i == 0 {
			prefix = ui.PromptGlyph + " "
		}
		b.WriteString(r.styles.UserMsg.Render(prefix + line))
		b.WriteByte('\n')
	}
	for _, img := range e.Images {
		b.WriteString(r.styles.Muted.Render("  [image] " + img))
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Renderer) toolResult(e Event) string {
	style := r.styles.Muted
	if e.IsError {
		style = r.styles.Error
	}
	header := e.Summary
	body := e.Text
	if header == "" {
		header, body = splitFirstLine(e.Text)
	}
	if header == "" {
		header = "done"
		if e.IsError {
			header = "failed"
		}
	}

	var b strings.Builder
	b.WriteString(style.Render(resultIndent + header))
	b.WriteByte('\n')
	if e.IsError && strings.TrimSpace(body) != "" {
		lines, more := headLines(body, maxResultLines)
		for _, line := range lines {
			b.WriteString(style.Render(bodyIndent + line))
			b.WriteByte('\n')
		}
		if more > 0 {
			b.WriteString(r.styles.Muted.Render(fmt.Sprintf("%s%s +%d lines", bodyIndent, ui.EllipsisGlyph, more)))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (r *Renderer) toolOutput(e Event, width int) string {
	lines, more := headLines(e.Text, maxOutputLines)
	if total := e.TotalLines; total > len(lines)+more {
		more = total - len(lines)
	}
	var b strings.Builder
	for i, line := range lines {
		prefix := bodyIndent
		if i == 0 {
			prefix = resultIndent
		}
		b.WriteString(ui.TruncateLine(prefix+line, width, ui.EllipsisGlyph))
		b.WriteByte('\n')
	}
	if len(lines) == 0 {
		b.WriteString(r.styles.Muted.Render(resultIndent + "(no output)"))
		b.WriteByte('\n')
	}
	if more > 0 {
		b.WriteString(r.styles.Muted.Render(fmt.Sprintf("%s%s +%d lines", bodyIndent, ui.EllipsisGlyph, more)))
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Renderer) fileRead(e Event, width int) string {
	lines, more := headLines(e.Text, maxFileLines)
	total := max(e.TotalLines, len(lines)+more)

	var b strings.Builder
	b.WriteString(r.styles.Muted.Render(fmt.Sprintf("%sRead %d lines", resultIndent, total)))
	b.WriteByte('\n')

	h := ui.NewHighlighter(e.Path)
	numWidth := max(len(strconv.Itoa(len(lines))), 3)
	for i, line := range lines {
		num := r.styles.Muted.Render(fmt.Sprintf("%s%*d ", bodyIndent, numWidth, i+1))
		b.WriteString(ui.TruncateLine(num+h.HighlightLine(line), width, ui.EllipsisGlyph))
		b.WriteByte('\n')
	}
	if more > 0 {
		b.WriteString(r.styles.Muted.Render(fmt.Sprintf("%s%s +%d lines", bodyIndent, ui.EllipsisGlyph, total-len(lines))))
		b.WriteByte('\n')
	}
	return b.String()
}

// fileDiff renders a unified diff with new-file line numbers, dropping the
// file headers and separating hunks with an ellipsis row.
func (r *Renderer) fileDiff(e Event, width int) string {
	s := r.styles
	var b strings.Builder
	if e.Summary != "" {
		b.WriteString(s.Muted.Render(resultIndent + e.Summary))
		b.WriteByte('\n')
	}

	h := ui.NewHighlighterForLanguage(e.Language)
	if h == nil && e.Path != "" {
		h = ui.NewHighlighter(e.Path)
	}

	var newLine, deletion, hunks, shown, hidden int
	for _, line := range strings.Split(e.Text, "\n") {
		if line == "" || strings.HasPrefix(line, "diff ") ||
			strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
			continue
		}
		if line[0] == '@' {
			if m := hunkRe.FindStringSubmatch(line); m != nil {
				newLine, _ = strconv.Atoi(m[2])
			}
			deletion = 0
			if hunks > 0 && shown < maxDiffLines {
				b.WriteString(s.DiffHunk.Render(bodyIndent + ui.EllipsisGlyph))
				b.WriteByte('\n')
			}
			hunks++
			continue
		}
		if shown >= maxDiffLines {
			hidden++
			continue
		}

		content := line[1:]
		var out string
		switch line[0] {
		case '-':
			out = s.DiffRemove.Render(fmt.Sprintf("%s%4d - %s", bodyIndent, newLine+deletion, content))
			deletion++
		case '+':
			deletion = 0
			out = s.DiffAdd.Render(fmt.Sprintf("%s%4d + %s", bodyIndent, newLine, content))
			newLine++
		case ' ':
			deletion = 0
			out = s.Muted.Render(fmt.Sprintf("%s%4d   ", bodyIndent, newLine)) + h.HighlightLine(content)
			newLine++
		default:
			out = bodyIndent + line
		}
		b.WriteString(ui.TruncateLine(out, width, ui.EllipsisGlyph))
		b.WriteByte('\n')
		shown++
	}
	if hidden > 0 {
		b.WriteString(s.Muted.Render(fmt.Sprintf("%s%s +%d lines", bodyIndent, ui.EllipsisGlyph, hidden)))
		b.WriteByte('\n')
	}
	return b.String()
}

func firstLine(s string) string {
	line, _ := splitFirstLine(s)
	return line
}

func splitFirstLine(s string) (string, string) {
	s = strings.TrimLeft(s, "\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// headLines returns up to n lines of s and how many were left out.
func headLines(s string, n int) ([]string, int) {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil, 0
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return lines, 0
	}
	return lines[:n], len(lines) - n
}
