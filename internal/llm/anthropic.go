package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider using the Anthropic API.
type AnthropicProvider struct {
	client         anthropic.Client
	model          string
	thinkingBudget int64 // 0 = disabled, >0 = enabled with budget
	maxTokens      int64
}

// NewAnthropicProvider creates a provider. A model name ending in
// "-thinking" enables extended thinking with a default budget.
func NewAnthropicProvider(apiKey, model string, thinkingBudget, maxTokens int64, opts ...option.RequestOption) *AnthropicProvider {
	model, budget := parseModelThinking(model)
	if thinkingBudget == 0 {
		thinkingBudget = budget
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicProvider{
		client:         anthropic.NewClient(opts...),
		model:          model,
		thinkingBudget: thinkingBudget,
		maxTokens:      maxTokens,
	}
}

// parseModelThinking extracts -thinking suffix from model name.
// "claude-sonnet-4-5-thinking" -> ("claude-sonnet-4-5", 10000)
// "claude-sonnet-4-5" -> ("claude-sonnet-4-5", 0)
func parseModelThinking(model string) (string, int64) {
	if base, ok := strings.CutSuffix(model, "-thinking"); ok {
		return base, 10000
	}
	return model, 0
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Model() string {
	return p.model
}

// Thinking reports whether extended thinking is enabled.
func (p *AnthropicProvider) Thinking() bool {
	return p.thinkingBudget > 0
}

func (p *AnthropicProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(chooseModel(req.Model, p.model)),
			MaxTokens: maxTokens(req.MaxOutputTokens, p.maxTokens),
			Messages:  buildAnthropicMessages(req.Messages),
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}
		if p.thinkingBudget > 0 {
			params.MaxTokens = max(params.MaxTokens, p.thinkingBudget+4096)
			params.Thinking = anthropic.ThinkingConfigParamUnion{
				OfEnabled: &anthropic.ThinkingConfigEnabledParam{
					BudgetTokens: p.thinkingBudget,
				},
			}
		}

		var usage Usage
		stream := p.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			event := stream.Current()
			switch variant := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.InputTokens = int(variant.Message.Usage.InputTokens)
			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text != "" {
						if err := send(ctx, events, Event{Type: EventTextDelta, Text: delta.Text}); err != nil {
							return err
						}
					}
				case anthropic.ThinkingDelta:
					if delta.Thinking != "" {
						if err := send(ctx, events, Event{Type: EventReasoningDelta, Text: delta.Thinking}); err != nil {
							return err
						}
					}
				}
			case anthropic.MessageDeltaEvent:
				if variant.Usage.OutputTokens > 0 {
					usage.OutputTokens = int(variant.Usage.OutputTokens)
				}
			}
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("anthropic streaming error: %w", err)
		}
		if usage.InputTokens > 0 || usage.OutputTokens > 0 {
			if err := send(ctx, events, Event{Type: EventUsage, Use: &usage}); err != nil {
				return err
			}
		}
		return send(ctx, events, Event{Type: EventDone})
	}), nil
}

// buildAnthropicMessages converts the conversation, merging consecutive
// turns of the same role since the API requires them to alternate.
func buildAnthropicMessages(messages []Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	var role Role
	var texts []string
	flush := func() {
		if len(texts) == 0 {
			return
		}
		block := anthropic.NewTextBlock(strings.Join(texts, "\n\n"))
		if role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
		texts = nil
	}
	for _, msg := range messages {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if msg.Role != role {
			flush()
			role = msg.Role
		}
		texts = append(texts, msg.Text)
	}
	flush()
	return out
}
