package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider with the chat completions API, which
// OpenAI and most local model servers speak.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a provider. An empty baseURL uses OpenAI.
func NewOpenAIProvider(apiKey, model, baseURL string, opts ...option.RequestOption) *OpenAIProvider {
	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		base = append(base, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(append(base, opts...)...),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		params := openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(chooseModel(req.Model, p.model)),
			Messages: buildOpenAIMessages(req.System, req.Messages),
			StreamOptions: openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: openai.Bool(true),
			},
		}
		if req.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
		}

		var usage *Usage
		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if chunk.Usage.TotalTokens > 0 {
				usage = &Usage{
					InputTokens:  int(chunk.Usage.PromptTokens),
					OutputTokens: int(chunk.Usage.CompletionTokens),
				}
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if err := send(ctx, events, Event{Type: EventTextDelta, Text: choice.Delta.Content}); err != nil {
					return err
				}
			}
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("openai streaming error: %w", err)
		}
		if usage != nil {
			if err := send(ctx, events, Event{Type: EventUsage, Use: usage}); err != nil {
				return err
			}
		}
		return send(ctx, events, Event{Type: EventDone})
	}), nil
}

func buildOpenAIMessages(system string, messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Text))
		default:
			out = append(out, openai.UserMessage(msg.Text))
		}
	}
	return out
}
