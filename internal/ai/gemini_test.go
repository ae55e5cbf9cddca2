package ai

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botgpt-backend/internal/config"
)

func TestToGeminiContents(t *testing.T) {
	system, history, last, err := toGeminiContents([]ChatMessage{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "be brief", system)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("a1")}, history[1].Parts)
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, []genai.Part{genai.Text("q2")}, last.Parts)
}

func TestToGeminiContents_Invalid(t *testing.T) {
	_, _, _, err := toGeminiContents([]ChatMessage{{Role: RoleSystem, Content: "s"}})
	assert.Error(t, err)

	_, _, _, err = toGeminiContents([]ChatMessage{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	})
	assert.Error(t, err)
}

func TestNewChatCompleter(t *testing.T) {
	c, closeFn, err := NewChatCompleter(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI})
	require.NoError(t, err)
	assert.IsType(t, &OpenAICompatibleClient{}, c)
	assert.NoError(t, closeFn())

	_, _, err = NewChatCompleter(context.Background(), config.LLMConfig{Provider: config.ProviderGemini})
	assert.ErrorContains(t, err, "api key")

	_, _, err = NewChatCompleter(context.Background(), config.LLMConfig{Provider: "other"})
	assert.Error(t, err)
}
