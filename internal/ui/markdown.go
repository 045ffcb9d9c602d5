package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// rendererCache provides width-keyed caching of glamour renderers.
var rendererCache sync.Map // map[int]*glamour.TermRenderer

func resetRendererCache() {
	rendererCache.Range(func(k, _ any) bool {
		rendererCache.Delete(k)
		return true
	})
}

func getRenderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := rendererCache.Load(width); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(GlamourStyleFromTheme(GetTheme())),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	actual, _ := rendererCache.LoadOrStore(width, renderer)
	return actual.(*glamour.TermRenderer), nil
}

// GlamourStyleFromTheme derives a glamour style from the dark preset, recolored
// with the theme and stripped of document margins so output lines up with
// the rest of the transcript.
func GlamourStyleFromTheme(theme *Theme) ansi.StyleConfig {
	style := styles.DarkStyleConfig

	text := string(theme.Text)
	secondary := string(theme.Secondary)
	warning := string(theme.Warning)
	primary := string(theme.Primary)
	muted := string(theme.Muted)
	zero := uint(0)

	style.Document.Margin = &zero
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""
	style.Document.Color = &text
	style.CodeBlock.Margin = &zero
	style.Heading.Color = &secondary
	style.BlockQuote.Color = &warning
	style.Code.Color = &primary
	style.HorizontalRule.Color = &muted
	style.Link.Color = &secondary
	return style
}

// RenderMarkdown renders markdown at the given width.
// On error the content is returned unchanged.
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	rendered, err := RenderMarkdownWithError(content, width)
	if err != nil {
		return strings.TrimRight(content, "\n")
	}
	return rendered
}

// RenderMarkdownWithError renders markdown content and returns any errors.
func RenderMarkdownWithError(content string, width int) (string, error) {
	if width < 10 {
		width = 10
	}
	renderer, err := getRenderer(width)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	return trimRenderedLines(rendered), nil
}

// trimRenderedLines drops glamour's leading/trailing blank lines and the
// right-padding it adds to every line.
func trimRenderedLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = TrimTrailingSpace(line)
	}
	for len(lines) > 0 && strings.TrimSpace(StripANSI(lines[0])) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(StripANSI(lines[len(lines)-1])) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
