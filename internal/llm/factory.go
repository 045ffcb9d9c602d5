package llm

import (
	"fmt"
	"strings"

	aoption "github.com/anthropics/anthropic-sdk-go/option"
	ooption "github.com/openai/openai-go/option"
	"github.com/samsaffron/term-chat/internal/config"
)

// ProviderNames lists the built-in providers.
var ProviderNames = []string{"anthropic", "openai", "echo"}

// ParseProviderModel parses "provider:model" or just "provider" from a flag value.
// Returns (provider, model, error). Model will be empty if not specified.
func ParseProviderModel(s string) (string, string, error) {
	provider, model, _ := strings.Cut(s, ":")
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", "", fmt.Errorf("invalid provider format: %q", s)
	}
	for _, name := range ProviderNames {
		if provider == name {
			return provider, strings.TrimSpace(model), nil
		}
	}
	return "", "", fmt.Errorf("unknown provider: %s", provider)
}

// NewProvider creates the provider selected by cfg.
// Network providers are wrapped with automatic retry for rate limits (429)
// and transient errors. The SDKs' own retries are disabled.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured. Set ANTHROPIC_API_KEY or add to config")
		}
		p := NewAnthropicProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.ThinkingBudget, cfg.Anthropic.MaxTokens,
			aoption.WithMaxRetries(0))
		return WrapWithRetry(p, DefaultRetryConfig()), nil
	case "openai":
		if cfg.OpenAI.APIKey == "" && cfg.OpenAI.BaseURL == "" {
			return nil, fmt.Errorf("openai API key not configured. Set OPENAI_API_KEY or add to config")
		}
		p := NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL,
			ooption.WithMaxRetries(0))
		return WrapWithRetry(p, DefaultRetryConfig()), nil
	case "echo", "":
		return NewEchoProvider(cfg.Echo.ChunkDelay), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// ThinkingEnabled reports whether p streams extended reasoning.
func ThinkingEnabled(p Provider) bool {
	if r, ok := p.(*RetryProvider); ok {
		p = r.Unwrap()
	}
	if a, ok := p.(*AnthropicProvider); ok {
		return a.Thinking()
	}
	return false
}
