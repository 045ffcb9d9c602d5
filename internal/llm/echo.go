package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// echoChunkRunes is the size of each streamed text delta.
const echoChunkRunes = 6

// EchoProvider answers offline by quoting the last user message back. It
// streams the same deltas for the same input, so it doubles as a fixture.
type EchoProvider struct {
	delay time.Duration
}

// NewEchoProvider creates a provider that waits delay between deltas.
func NewEchoProvider(delay time.Duration) *EchoProvider {
	return &EchoProvider{delay: delay}
}

func (p *EchoProvider) Name() string {
	return "echo"
}

func (p *EchoProvider) Model() string {
	return "echo"
}

func (p *EchoProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	var last string
	var inputChars int
	for _, msg := range req.Messages {
		inputChars += len(msg.Text)
		if msg.Role == RoleUser {
			last = msg.Text
		}
	}
	reasoning, reply := EchoReply(last)

	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		if err := p.stream(ctx, events, EventReasoningDelta, reasoning); err != nil {
			return err
		}
		if err := p.stream(ctx, events, EventTextDelta, reply); err != nil {
			return err
		}
		usage := &Usage{InputTokens: inputChars / 4, OutputTokens: len(reply) / 4}
		if err := send(ctx, events, Event{Type: EventUsage, Use: usage}); err != nil {
			return err
		}
		return send(ctx, events, Event{Type: EventDone})
	}), nil
}

func (p *EchoProvider) stream(ctx context.Context, events chan<- Event, typ EventType, text string) error {
	for _, chunk := range Chunks(text, echoChunkRunes) {
		if p.delay > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := send(ctx, events, Event{Type: typ, Text: chunk}); err != nil {
			return err
		}
	}
	return nil
}

// EchoReply builds the reasoning and answer the echo provider streams for
// a prompt.
func EchoReply(prompt string) (reasoning, reply string) {
	prompt = strings.TrimSpace(prompt)
	lines := strings.Split(prompt, "\n")
	words := len(strings.Fields(prompt))
	reasoning = fmt.Sprintf("The prompt has %d %s on %d %s; quoting it back.\n",
		words, pluralize(words, "word"), len(lines), pluralize(len(lines), "line"))

	var b strings.Builder
	b.WriteString("You said:\n\n")
	for _, line := range lines {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n_%d characters._\n", utf8.RuneCountInString(prompt))
	return reasoning, b.String()
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Chunks splits text into pieces of at most n runes.
func Chunks(text string, n int) []string {
	var out []string
	for text != "" {
		i, count := 0, 0
		for i < len(text) && count < n {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			count++
		}
		out = append(out, text[:i])
		text = text[i:]
	}
	return out
}
