package chat

import (
	"fmt"

	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/render"
)

// compact drops the oldest turns once the conversation outgrows
// chat.context_chars, keeping at least the newest message. The kept history
// always starts with a user message.
func (s *Session) compact() {
	budget := s.cfg.Chat.ContextChars
	if budget <= 0 {
		return
	}
	kept, dropped := trimMessages(s.messages, budget)
	if dropped == 0 {
		return
	}
	s.messages = kept
	s.log.Debug("conversation compacted", "dropped", dropped, "kept", len(kept), "budget", budget)
	s.live.Emit(render.AutoCompact(fmt.Sprintf(
		"Dropped %d earlier message(s) to stay within %d characters of context", dropped, budget)))
}

func trimMessages(msgs []llm.Message, budget int) ([]llm.Message, int) {
	total := 0
	for _, m := range msgs {
		total += len(m.Text)
	}
	start := 0
	for start < len(msgs)-1 && total > budget {
		total -= len(msgs[start].Text)
		start++
	}
	for start < len(msgs)-1 && msgs[start].Role != llm.RoleUser {
		start++
	}
	if start == 0 {
		return msgs, 0
	}
	return append([]llm.Message(nil), msgs[start:]...), start
}
