package chat

import (
	"strings"

	"voice-studio/internal/llm"
)

// DefaultWindow is how many trailing session messages go out with each
// completion request.
const DefaultWindow = 10

// BuildContextWindow returns the request payload for one completion: the
// last n messages in order, preceded by a system message when
// systemPrompt is non-empty. The system message does not count against n.
func BuildContextWindow(messages []llm.Message, systemPrompt string, n int) []llm.Message {
	if n <= 0 {
		n = DefaultWindow
	}
	start := 0
	if len(messages) > n {
		start = len(messages) - n
	}
	out := make([]llm.Message, 0, len(messages)-start+1)
	if strings.TrimSpace(systemPrompt) != "" {
		out = append(out, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	return append(out, messages[start:]...)
}
