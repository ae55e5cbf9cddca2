package ai

import (
	"context"
	"fmt"
	"time"

	"botgpt-backend/internal/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is one model reply. TotalTokens is zero when the provider did
// not report usage.
type Completion struct {
	Content     string
	TotalTokens int
}

type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage) (*Completion, error)
}

type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func ChatConfigFrom(cfg config.LLMConfig) ChatConfig {
	return ChatConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// NewChatCompleter builds the client for the configured provider. The
// returned close func releases provider resources and is never nil.
func NewChatCompleter(ctx context.Context, cfg config.LLMConfig) (ChatCompleter, func() error, error) {
	chatCfg := ChatConfigFrom(cfg)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAICompatibleClient(chatCfg), func() error { return nil }, nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, chatCfg)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
