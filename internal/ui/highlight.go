package ui

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// Highlighter colors source lines in file excerpts and diffs. Colors
// follow the theme's chroma style and are degraded to what the terminal
// supports; backgrounds are never set so diff backgrounds show through.
type Highlighter struct {
	lexer   chroma.Lexer
	style   *chroma.Style
	profile termenv.Profile
}

// colorProfile is detected once from stdout and the environment
// (NO_COLOR, CLICOLOR_FORCE).
var colorProfile = sync.OnceValue(func() termenv.Profile {
	return termenv.EnvColorProfile()
})

// NewHighlighter creates a highlighter for the given file path.
// Returns nil if the language is not recognized.
func NewHighlighter(filePath string) *Highlighter {
	return newHighlighter(lexers.Match(filePath), colorProfile())
}

// NewHighlighterForLanguage creates a highlighter from a language name such
// as "go" or "python". Returns nil if the language is not recognized.
func NewHighlighterForLanguage(language string) *Highlighter {
	if language == "" {
		return nil
	}
	return newHighlighter(lexers.Get(language), colorProfile())
}

func newHighlighter(lexer chroma.Lexer, profile termenv.Profile) *Highlighter {
	if lexer == nil || profile == termenv.Ascii {
		return nil
	}
	style := styles.Get(GetTheme().Syntax)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		lexer:   chroma.Coalesce(lexer),
		style:   style,
		profile: profile,
	}
}

// HighlightLine colors one line. A nil highlighter returns it unchanged.
func (h *Highlighter) HighlightLine(line string) string {
	if h == nil {
		return line
	}
	iterator, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var b strings.Builder
	for token := iterator(); token != chroma.EOF; token = iterator() {
		value := strings.TrimRight(token.Value, "\n")
		if value == "" {
			continue
		}
		b.WriteString(h.render(token.Type, value))
	}
	return b.String()
}

func (h *Highlighter) render(tt chroma.TokenType, value string) string {
	entry := h.style.Get(tt)
	s := termenv.String(value)
	styled := false
	if entry.Colour.IsSet() {
		s = s.Foreground(h.profile.Color(entry.Colour.String()))
		styled = true
	}
	if entry.Bold == chroma.Yes {
		s = s.Bold()
		styled = true
	}
	if entry.Italic == chroma.Yes {
		s = s.Italic()
		styled = true
	}
	if !styled {
		return value
	}
	return s.String()
}
