package ui

import (
	"strings"
	"sync/atomic"
)

// BlockKind classifies a unit of transcript output for spacing decisions.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockUserPrompt
	BlockThinking
	BlockAssistantText
	BlockInfo
	BlockToolCallBanner
	BlockToolContent
)

func (k BlockKind) String() string {
	switch k {
	case BlockUserPrompt:
		return "user-prompt"
	case BlockThinking:
		return "thinking"
	case BlockAssistantText:
		return "assistant-text"
	case BlockInfo:
		return "info"
	case BlockToolCallBanner:
		return "tool-call-banner"
	case BlockToolContent:
		return "tool-content"
	default:
		return "none"
	}
}

// BlockKinds lists every real block kind.
var BlockKinds = []BlockKind{
	BlockUserPrompt,
	BlockThinking,
	BlockAssistantText,
	BlockInfo,
	BlockToolCallBanner,
	BlockToolContent,
}

const (
	// SectionBreakTrailingNewlines ends the current line without a blank row.
	SectionBreakTrailingNewlines = 1
	// BlankLineTrailingNewlines leaves one empty row between blocks.
	BlankLineTrailingNewlines = 2
	// MaxStreamingConsecutiveNewlines limits runaway vertical whitespace in streamed text.
	MaxStreamingConsecutiveNewlines = 2
)

var spacingSuppressed atomic.Bool

// SetSpacingSuppressed turns every blank-line separator off (or back on).
func SetSpacingSuppressed(v bool) {
	spacingSuppressed.Store(v)
}

// SpacingSuppressed reports whether blank-line separators are disabled.
func SpacingSuppressed() bool {
	return spacingSuppressed.Load()
}

// glued lists the transitions that never get a blank line between them.
// Any pair not listed here is separated.
var glued = map[[2]BlockKind]bool{
	{BlockToolCallBanner, BlockToolContent}: true,
	{BlockUserPrompt, BlockUserPrompt}:      true,
	{BlockInfo, BlockInfo}:                  true,
}

// NeedsBlankLineBefore reports whether a blank row goes between a block of
// kind prev and a following block of kind next.
func NeedsBlankLineBefore(prev, next BlockKind) bool {
	if SpacingSuppressed() {
		return false
	}
	if prev == BlockNone || next == BlockNone {
		return false
	}
	return !glued[[2]BlockKind{prev, next}]
}

// TrailingNewlinesBefore returns the trailing newline run required before a
// block of kind next that follows prev.
func TrailingNewlinesBefore(prev, next BlockKind) int {
	if NeedsBlankLineBefore(prev, next) {
		return BlankLineTrailingNewlines
	}
	return SectionBreakTrailingNewlines
}

// StreamingNewlineCompactor incrementally compacts excessive newline runs across chunks.
type StreamingNewlineCompactor struct {
	maxRun int
	run    int
}

// NewStreamingNewlineCompactor creates a stateful compactor for streamed text.
func NewStreamingNewlineCompactor(maxRun int) *StreamingNewlineCompactor {
	if maxRun <= 0 {
		maxRun = MaxStreamingConsecutiveNewlines
	}
	return &StreamingNewlineCompactor{maxRun: maxRun}
}

// CompactChunk returns chunk with newline runs capped to maxRun, preserving cross-chunk state.
func (c *StreamingNewlineCompactor) CompactChunk(chunk string) string {
	if c == nil || chunk == "" {
		return chunk
	}
	var b strings.Builder
	b.Grow(len(chunk))
	for i := 0; i < len(chunk); i++ {
		ch := chunk[i]
		if ch == '\n' {
			c.run++
			if c.run <= c.maxRun {
				b.WriteByte(ch)
			}
			continue
		}
		c.run = 0
		b.WriteByte(ch)
	}
	return b.String()
}

// CountTrailingNewlines returns how many '\n' characters appear at the end of s.
func CountTrailingNewlines(s string) int {
	count := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\n'; i-- {
		count++
	}
	return count
}

// NewlinesNeededForTrailing returns the number of '\n' characters required to
// reach at least targetTrailing newlines.
func NewlinesNeededForTrailing(currentTrailing, targetTrailing int) int {
	if currentTrailing >= targetTrailing {
		return 0
	}
	return targetTrailing - currentTrailing
}
