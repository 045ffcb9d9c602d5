// Package llm streams model output for the chat session. Providers turn a
// conversation into a Stream of text, reasoning and usage events.
package llm

import "context"

// Provider streams model output events for a request.
type Provider interface {
	Name() string
	Model() string
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// Request represents a single model turn.
type Request struct {
	Model           string
	System          string
	Messages        []Message
	MaxOutputTokens int
}

// Role identifies a message role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role Role
	Text string
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// EventType describes streaming events.
type EventType string

const (
	EventTextDelta      EventType = "text_delta"
	EventReasoningDelta EventType = "reasoning_delta"
	EventToolExecStart  EventType = "tool_exec_start" // Emitted when tool execution begins
	EventToolExecEnd    EventType = "tool_exec_end"   // Emitted when tool execution completes
	EventUsage          EventType = "usage"
	EventDone           EventType = "done"
	EventError          EventType = "error"
	EventRetry          EventType = "retry" // Emitted when retrying after rate limit
)

// Event represents a streamed output update.
type Event struct {
	Type        EventType
	Text        string
	ToolName    string // For EventToolExecStart/End: name of tool being executed
	ToolInfo    string // For EventToolExecStart/End: additional info (e.g., command being run)
	ToolSuccess bool   // For EventToolExecEnd: whether tool execution succeeded
	ToolOutput  string // For EventToolExecEnd: the tool's output
	Use         *Usage
	Err         error
	// Retry fields (for EventRetry)
	RetryAttempt     int
	RetryMaxAttempts int
	RetryWaitSecs    float64
}

// Usage captures token usage if available.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func chooseModel(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}

func maxTokens(requested int, fallback int64) int64 {
	if requested > 0 {
		return int64(requested)
	}
	return fallback
}
