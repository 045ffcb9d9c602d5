package ui

import (
	"io"
	"os"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the session renderer
type Theme struct {
	Primary   lipgloss.Color // prompt marker, tool banners
	Secondary lipgloss.Color // headings, menu selection

	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Muted   lipgloss.Color // info lines, thinking, hints
	Text    lipgloss.Color

	Spinner lipgloss.Color

	DiffAddBg    lipgloss.Color
	DiffRemoveBg lipgloss.Color

	UserMsgBg lipgloss.Color // background behind echoed user prompts

	Syntax string // chroma style for code in file excerpts and diffs
}

// DefaultTheme returns the default color theme (gruvbox)
func DefaultTheme() *Theme {
	return &Theme{
		Primary:      lipgloss.Color("#b8bb26"),
		Secondary:    lipgloss.Color("#83a598"),
		Success:      lipgloss.Color("#b8bb26"),
		Error:        lipgloss.Color("#fb4934"),
		Warning:      lipgloss.Color("#fabd2f"),
		Muted:        lipgloss.Color("#928374"),
		Text:         lipgloss.Color("#ebdbb2"),
		Spinner:      lipgloss.Color("#d3869b"),
		DiffAddBg:    lipgloss.Color("#1d2021"),
		DiffRemoveBg: lipgloss.Color("#1d2021"),
		UserMsgBg:    lipgloss.Color("#3c3836"),
		Syntax:       "gruvbox",
	}
}

// ThemeConfig mirrors config.ThemeConfig for applying overrides
type ThemeConfig struct {
	Preset    string
	Primary   string
	Secondary string
	Success   string
	Error     string
	Warning   string
	Muted     string
	Text      string
	Spinner   string
	UserMsgBg string
	Syntax    string
}

// presets are palettes selectable through theme.preset.
var presets = map[string]ThemeConfig{
	"gruvbox": {},
	"nord": {
		Primary:   "#88c0d0",
		Secondary: "#81a1c1",
		Success:   "#a3be8c",
		Error:     "#bf616a",
		Warning:   "#ebcb8b",
		Muted:     "#4c566a",
		Text:      "#eceff4",
		Spinner:   "#b48ead",
		UserMsgBg: "#3b4252",
		Syntax:    "nord",
	},
	"dracula": {
		Primary:   "#bd93f9",
		Secondary: "#8be9fd",
		Success:   "#50fa7b",
		Error:     "#ff5555",
		Warning:   "#f1fa8c",
		Muted:     "#6272a4",
		Text:      "#f8f8f2",
		Spinner:   "#ff79c6",
		UserMsgBg: "#44475a",
		Syntax:    "dracula",
	},
	"classic": {
		Primary:   "10",
		Secondary: "4",
		Success:   "10",
		Error:     "9",
		Warning:   "11",
		Muted:     "245",
		Text:      "15",
		Spinner:   "205",
		UserMsgBg: "236",
		Syntax:    "monokai",
	},
}

// PresetNames lists the built-in palettes in display order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeFromConfig creates a theme from a preset with config overrides applied
func ThemeFromConfig(cfg ThemeConfig) *Theme {
	theme := DefaultTheme()
	if p, ok := presets[cfg.Preset]; ok {
		applyThemeConfig(theme, p)
	}
	applyThemeConfig(theme, cfg)
	return theme
}

func applyThemeConfig(theme *Theme, cfg ThemeConfig) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&theme.Primary, cfg.Primary)
	set(&theme.Secondary, cfg.Secondary)
	set(&theme.Success, cfg.Success)
	set(&theme.Error, cfg.Error)
	set(&theme.Warning, cfg.Warning)
	set(&theme.Muted, cfg.Muted)
	set(&theme.Text, cfg.Text)
	set(&theme.Spinner, cfg.Spinner)
	set(&theme.UserMsgBg, cfg.UserMsgBg)
	if cfg.Syntax != "" {
		theme.Syntax = cfg.Syntax
	}
}

var (
	themeMu      sync.RWMutex
	currentTheme = DefaultTheme()
)

// GetTheme returns the current active theme
func GetTheme() *Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetTheme sets the current active theme and drops cached markdown renderers.
func SetTheme(t *Theme) {
	themeMu.Lock()
	currentTheme = t
	themeMu.Unlock()
	resetRendererCache()
}

// InitTheme initializes the theme from config
func InitTheme(cfg ThemeConfig) {
	SetTheme(ThemeFromConfig(cfg))
}

// Glyphs shared by the prompt, the transcript and the menus.
const (
	PromptGlyph   = "❯"
	ToolGlyph     = "⏺"
	ResultGlyph   = "⎿"
	InfoGlyph     = "•"
	WarningGlyph  = "⚠"
	ErrorGlyph    = "✗"
	CompactGlyph  = "↻"
	EllipsisGlyph = "…"
)

// Styles holds lipgloss styles bound to a renderer
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	Prompt       lipgloss.Style
	UserMsg      lipgloss.Style
	Thinking     lipgloss.Style
	Muted        lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	Success      lipgloss.Style
	ToolBanner   lipgloss.Style
	Spinner      lipgloss.Style
	MenuItem     lipgloss.Style
	MenuSelected lipgloss.Style
	MenuDesc     lipgloss.Style
	Heading      lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffHunk   lipgloss.Style
}

// NewStyles creates styles for the given output using the current theme
func NewStyles(output io.Writer) *Styles {
	return NewStylesWithTheme(output, GetTheme())
}

// DefaultStyles returns styles for stdout, which is where the session renders.
func DefaultStyles() *Styles {
	return NewStyles(os.Stdout)
}

// NewStylesWithTheme creates styles with a specific theme
func NewStylesWithTheme(output io.Writer, theme *Theme) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,
		theme:    theme,

		Prompt: r.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		UserMsg: r.NewStyle().
			Foreground(theme.Text).
			Background(theme.UserMsgBg),

		Thinking: r.NewStyle().
			Italic(true).
			Foreground(theme.Muted),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Warning: r.NewStyle().
			Foreground(theme.Warning),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Success: r.NewStyle().
			Foreground(theme.Success),

		ToolBanner: r.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Spinner: r.NewStyle().
			Foreground(theme.Spinner),

		MenuItem: r.NewStyle().
			Foreground(theme.Text),

		MenuSelected: r.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		MenuDesc: r.NewStyle().
			Foreground(theme.Muted),

		Heading: r.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		DiffAdd: r.NewStyle().
			Foreground(theme.Success).
			Background(theme.DiffAddBg),

		DiffRemove: r.NewStyle().
			Foreground(theme.Error).
			Background(theme.DiffRemoveBg),

		DiffHunk: r.NewStyle().
			Foreground(theme.Secondary),
	}
}

// Theme returns the theme used by these styles
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Renderer returns the lipgloss renderer the styles were built for.
func (s *Styles) Renderer() *lipgloss.Renderer {
	return s.renderer
}
