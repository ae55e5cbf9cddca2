package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatibleClient_Complete(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there"}}],"usage":{"total_tokens":17}}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{
		BaseURL:     srv.URL + "/v1/",
		APIKey:      "key-1",
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	out, err := client.Complete(context.Background(), []ChatMessage{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "Hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", out.Content)
	assert.Equal(t, 17, out.TotalTokens)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.False(t, got.Stream)
	assert.Len(t, got.Messages, 2)
}

func TestOpenAICompatibleClient_NoUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "k"})
	out, err := client.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "x"}})
	require.NoError(t, err)
	assert.Zero(t, out.TotalTokens)
}

func TestOpenAICompatibleClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer empty" {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	msgs := []ChatMessage{{Role: RoleUser, Content: "x"}}

	_, err := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "k"}).Complete(context.Background(), msgs)
	assert.ErrorContains(t, err, "status 429")
	assert.ErrorContains(t, err, "rate limited")

	_, err = NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "empty"}).Complete(context.Background(), msgs)
	assert.ErrorContains(t, err, "empty llm choices")

	_, err = NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL}).Complete(context.Background(), msgs)
	assert.ErrorContains(t, err, "api key")
}
