// Package render turns session events into transcript text. The same
// Renderer drives the live terminal and offline replay of the event log, so
// a full repaint reproduces what was streamed.
package render

import (
	"bytes"
	"fmt"

	diff "github.com/shogoki/gotextdiff"
	"github.com/samsaffron/term-chat/internal/ui"
)

// Kind identifies a session event.
type Kind int

const (
	KindUserPrompt Kind = iota
	KindThinking
	KindAssistantText
	KindToolUse
	KindToolResult
	KindToolOutput
	KindFileReadOutput
	KindFileDiff
	KindInfo
	KindWarning
	KindError
	KindToolStart
	KindToolEnd
	KindAutoCompact
)

var kindNames = map[Kind]string{
	KindUserPrompt:     "user_prompt",
	KindThinking:       "thinking",
	KindAssistantText:  "assistant_text",
	KindToolUse:        "tool_use",
	KindToolResult:     "tool_result",
	KindToolOutput:     "tool_output",
	KindFileReadOutput: "file_read_output",
	KindFileDiff:       "file_diff",
	KindInfo:           "info",
	KindWarning:        "warning",
	KindError:          "error",
	KindToolStart:      "tool_start",
	KindToolEnd:        "tool_end",
	KindAutoCompact:    "auto_compact",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one entry of the session log.
type Event struct {
	Kind Kind
	// Text is the prompt, the streamed delta, the tool description, the
	// output or the message, depending on Kind.
	Text string
	// Images names images attached to a user prompt.
	Images []string
	// Streaming marks a Thinking or AssistantText delta that more deltas of
	// the same block will follow. A non-streaming event closes the block.
	Streaming bool
	// IsError marks a failed tool result.
	IsError bool
	// Summary is a one-line description of a tool result or diff.
	Summary string
	// TotalLines is the full length of tool or file output that Text may
	// only excerpt.
	TotalLines int
	// Path is the file a read or diff refers to.
	Path string
	// Language selects syntax highlighting for a diff.
	Language string
}

// Classify maps an event to the block it renders as. Tool start and end
// markers render nothing and report false.
func Classify(e Event) (ui.BlockKind, bool) {
	switch e.Kind {
	case KindUserPrompt:
		return ui.BlockUserPrompt, true
	case KindThinking:
		return ui.BlockThinking, true
	case KindAssistantText:
		return ui.BlockAssistantText, true
	case KindToolUse:
		return ui.BlockToolCallBanner, true
	case KindToolResult, KindToolOutput, KindFileReadOutput, KindFileDiff:
		return ui.BlockToolContent, true
	case KindInfo, KindWarning, KindError, KindAutoCompact:
		return ui.BlockInfo, true
	}
	return ui.BlockNone, false
}

func UserPrompt(text string, images ...string) Event {
	return Event{Kind: KindUserPrompt, Text: text, Images: images}
}

func Thinking(text string, streaming bool) Event {
	return Event{Kind: KindThinking, Text: text, Streaming: streaming}
}

func AssistantText(text string, streaming bool) Event {
	return Event{Kind: KindAssistantText, Text: text, Streaming: streaming}
}

func ToolUse(description string) Event {
	return Event{Kind: KindToolUse, Text: description}
}

func ToolResult(isError bool, output, summary string) Event {
	return Event{Kind: KindToolResult, IsError: isError, Text: output, Summary: summary}
}

func ToolOutput(text string, totalLines int) Event {
	return Event{Kind: KindToolOutput, Text: text, TotalLines: totalLines}
}

func FileReadOutput(path, text string, totalLines int) Event {
	return Event{Kind: KindFileReadOutput, Path: path, Text: text, TotalLines: totalLines}
}

func FileDiff(unified, language, summary string) Event {
	return Event{Kind: KindFileDiff, Text: unified, Language: language, Summary: summary}
}

func Info(msg string) Event    { return Event{Kind: KindInfo, Text: msg} }
func Warning(msg string) Event { return Event{Kind: KindWarning, Text: msg} }
func Error(msg string) Event   { return Event{Kind: KindError, Text: msg} }

func ToolStart() Event { return Event{Kind: KindToolStart} }
func ToolEnd() Event   { return Event{Kind: KindToolEnd} }

func AutoCompact(msg string) Event {
	return Event{Kind: KindAutoCompact, Text: msg}
}

// DiffFiles builds a FileDiff event for an edit of path. It reports false
// when the contents are equal.
func DiffFiles(path, oldContent, newContent string) (Event, bool) {
	if oldContent == newContent {
		return Event{}, false
	}
	unified := diff.Diff(path, []byte(oldContent), path, []byte(newContent))
	added, removed := countChanges(unified)
	summary := "Updated " + path + " with " + plural(added, "addition") + " and " + plural(removed, "removal")
	e := FileDiff(string(unified), "", summary)
	e.Path = path
	return e, true
}

func countChanges(unified []byte) (added, removed int) {
	for _, line := range bytes.Split(unified, []byte("\n")) {
		switch {
		case bytes.HasPrefix(line, []byte("+++")), bytes.HasPrefix(line, []byte("---")):
		case bytes.HasPrefix(line, []byte("+")):
			added++
		case bytes.HasPrefix(line, []byte("-")):
			removed++
		}
	}
	return added, removed
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
