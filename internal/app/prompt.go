package app

import (
	"botgpt-backend/internal/ai"
	"botgpt-backend/internal/model"
)

const (
	baseSystemPrompt = "You are a helpful assistant."
	groundedPrefix   = "\n\nUse ONLY this context to answer:\n"
)

// BuildPrompt returns the system instruction followed by history, unmodified
// and in order. The result always has len(history)+1 entries.
func BuildPrompt(history []model.Message, retrieved string) []ai.ChatMessage {
	system := baseSystemPrompt
	if retrieved != "" {
		system += groundedPrefix + retrieved
	}

	out := make([]ai.ChatMessage, 0, len(history)+1)
	out = append(out, ai.ChatMessage{Role: ai.RoleSystem, Content: system})
	for _, m := range history {
		out = append(out, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
