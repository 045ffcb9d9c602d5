package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samsaffron/term-chat/internal/history"
	"github.com/samsaffron/term-chat/internal/ui"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Provider  string          `mapstructure:"provider" yaml:"provider"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai" yaml:"openai"`
	Echo      EchoConfig      `mapstructure:"echo" yaml:"echo"`
	Theme     ThemeConfig     `mapstructure:"theme" yaml:"theme"`
	Chat      ChatConfig      `mapstructure:"chat" yaml:"chat"`
	History   history.Config  `mapstructure:"history" yaml:"history"`
	Debug     DebugConfig     `mapstructure:"debug" yaml:"debug"`
}

// ThemeConfig allows customization of UI colors
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB)
type ThemeConfig struct {
	Preset    string `mapstructure:"preset" yaml:"preset,omitempty"`       // gruvbox, nord, dracula, classic
	Primary   string `mapstructure:"primary" yaml:"primary,omitempty"`     // prompt marker, tool banners
	Secondary string `mapstructure:"secondary" yaml:"secondary,omitempty"` // headings, menu selection
	Success   string `mapstructure:"success" yaml:"success,omitempty"`
	Error     string `mapstructure:"error" yaml:"error,omitempty"`
	Warning   string `mapstructure:"warning" yaml:"warning,omitempty"`
	Muted     string `mapstructure:"muted" yaml:"muted,omitempty"` // dimmed text
	Text      string `mapstructure:"text" yaml:"text,omitempty"`
	Spinner   string `mapstructure:"spinner" yaml:"spinner,omitempty"`
	UserMsgBg string `mapstructure:"user_msg_bg" yaml:"user_msg_bg,omitempty"`
	Syntax    string `mapstructure:"syntax" yaml:"syntax,omitempty"` // chroma style name, e.g. monokai
}

// UI converts the theme section for ui.InitTheme.
func (t ThemeConfig) UI() ui.ThemeConfig {
	return ui.ThemeConfig{
		Preset:    t.Preset,
		Primary:   t.Primary,
		Secondary: t.Secondary,
		Success:   t.Success,
		Error:     t.Error,
		Warning:   t.Warning,
		Muted:     t.Muted,
		Text:      t.Text,
		Spinner:   t.Spinner,
		UserMsgBg: t.UserMsgBg,
		Syntax:    t.Syntax,
	}
}

type AnthropicConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model          string `mapstructure:"model" yaml:"model"`
	ThinkingBudget int64  `mapstructure:"thinking_budget" yaml:"thinking_budget"` // 0 disables extended thinking
	MaxTokens      int64  `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// OpenAIConfig configures OpenAI or any server speaking its chat
// completions API.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"` // empty uses api.openai.com
}

// EchoConfig configures the offline provider.
type EchoConfig struct {
	ChunkDelay time.Duration `mapstructure:"chunk_delay" yaml:"chunk_delay"`
}

type ChatConfig struct {
	Spinner         string            `mapstructure:"spinner" yaml:"spinner"`                   // bubbles spinner name: dot, line, minidot, jump, pulse, points, meter
	ViewportLines   int               `mapstructure:"viewport_lines" yaml:"viewport_lines"`     // live rows for /run output
	StatusFPS       int               `mapstructure:"status_fps" yaml:"status_fps"`             // status line refresh rate while streaming
	SuppressSpacing bool              `mapstructure:"suppress_spacing" yaml:"suppress_spacing"` // no blank rows between blocks
	Editor          string            `mapstructure:"editor" yaml:"editor,omitempty"`           // overrides $VISUAL and $EDITOR
	Shell           string            `mapstructure:"shell" yaml:"shell,omitempty"`             // overrides $SHELL for !cmd and /run
	System          string            `mapstructure:"system" yaml:"system,omitempty"`           // system prompt
	Commands        map[string]string `mapstructure:"commands" yaml:"commands,omitempty"`       // custom slash commands: name -> template with {{args}}
	ContextChars    int               `mapstructure:"context_chars" yaml:"context_chars"`       // older turns are dropped past this many characters
}

type DebugConfig struct {
	LogFile string `mapstructure:"log_file" yaml:"log_file,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.thinking_budget", 0)
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("openai.model", "gpt-4.1")
	v.SetDefault("echo.chunk_delay", "12ms")
	v.SetDefault("chat.spinner", "dot")
	v.SetDefault("chat.viewport_lines", 8)
	v.SetDefault("chat.status_fps", 10)
	v.SetDefault("chat.suppress_spacing", false)
	v.SetDefault("chat.context_chars", 200000)
	defaults := history.DefaultConfig()
	v.SetDefault("history.enabled", defaults.Enabled)
	v.SetDefault("history.max_entries", defaults.MaxEntries)
	v.SetDefault("history.picker", defaults.Picker)
}

// Load reads the config file from the config directory (or the working
// directory) into the global viper instance. A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}
	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	return LoadWith(v)
}

// LoadWith applies defaults to v, reads its config file if one is set up
// and resolves credentials.
func LoadWith(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveAnthropicCredentials(&cfg.Anthropic)
	resolveOpenAICredentials(&cfg.OpenAI)
	cfg.History.Path = expandHome(expandEnv(cfg.History.Path))
	cfg.Debug.LogFile = expandHome(expandEnv(cfg.Debug.LogFile))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider(&cfg)
	}
	return &cfg, nil
}

// defaultProvider picks the first provider with credentials, falling back
// to the offline echo provider.
func defaultProvider(cfg *Config) string {
	switch {
	case cfg.Anthropic.APIKey != "":
		return "anthropic"
	case cfg.OpenAI.APIKey != "":
		return "openai"
	default:
		return "echo"
	}
}

// ApplyOverrides applies provider and model overrides to the config.
// If provider is non-empty, it overrides the global provider.
// If model is non-empty, it overrides the model for the active provider.
func (c *Config) ApplyOverrides(provider, model string) {
	if provider != "" {
		c.Provider = provider
	}
	if model != "" {
		switch c.Provider {
		case "anthropic":
			c.Anthropic.Model = model
		case "openai":
			c.OpenAI.Model = model
		}
	}
}

// Model returns the model of the active provider.
func (c *Config) Model() string {
	switch c.Provider {
	case "anthropic":
		return c.Anthropic.Model
	case "openai":
		return c.OpenAI.Model
	}
	return ""
}

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Anthropic.APIKey = redact(c.Anthropic.APIKey)
	out.OpenAI.APIKey = redact(c.OpenAI.APIKey)
	return &out
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

// resolveAnthropicCredentials resolves Anthropic API credentials
func resolveAnthropicCredentials(cfg *AnthropicConfig) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// resolveOpenAICredentials resolves OpenAI API credentials
func resolveOpenAICredentials(cfg *OpenAIConfig) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.BaseURL = expandEnv(cfg.BaseURL)
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetConfigDir returns the XDG config directory for term-chat.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "term-chat"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "term-chat"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Save writes the config to disk. Credentials that came from the
// environment are not written.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *cfg
	if out.Anthropic.APIKey == os.Getenv("ANTHROPIC_API_KEY") {
		out.Anthropic.APIKey = ""
	}
	if out.OpenAI.APIKey == os.Getenv("OPENAI_API_KEY") {
		out.OpenAI.APIKey = ""
	}
	data, err := Marshal(&out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
