package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"voice-studio/internal/llm"
)

const (
	titlePrompt = "You are a helpful assistant. Generate a short, concise title (max 5 words) " +
		"for the chat based on the user message provided. Do not use quotes or punctuation."
	titleMaxWords    = 5
	titleMaxTokens   = 20
	titleTemperature = 0.5
)

// generateTitle names a session after its first message. Failures are
// logged and otherwise ignored; there is no retry.
func (s *Service) generateTitle(parent context.Context, id, userText string) {
	defer s.titles.Done()

	opts := s.Options()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), opts.TitleTimeout)
	defer cancel()

	resp, err := s.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: titlePrompt},
		{Role: llm.RoleUser, Content: userText},
	}, llm.Params{Model: opts.Model, Temperature: titleTemperature, MaxTokens: titleMaxTokens})
	if err != nil {
		log.Warn("title generation failed", "session", id, "err", err)
		return
	}
	title := cleanTitle(resp.Content)
	if title == "" {
		return
	}
	if err := s.store.Rename(ctx, id, title); err != nil {
		log.Warn("title rename failed", "session", id, "err", err)
	}
}

// cleanTitle trims wrapping quotes and trailing punctuation and keeps at
// most five words.
func cleanTitle(raw string) string {
	words := strings.Fields(strings.Trim(strings.TrimSpace(raw), "\"'`“”‘’"))
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	return strings.TrimRight(strings.Join(words, " "), ".,;:!?\"'“”")
}
