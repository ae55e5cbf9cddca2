package model

import "time"

const (
	EventTurnCompleted       = "turn.completed"
	EventConversationDeleted = "conversation.deleted"
)

// ConversationEvent is published after a turn completes or a conversation is removed.
type ConversationEvent struct {
	Type               string    `json:"type"`
	ConversationID     uint      `json:"conversation_id"`
	Mode               string    `json:"mode,omitempty"`
	UserMessageID      uint      `json:"user_message_id,omitempty"`
	AssistantMessageID uint      `json:"assistant_message_id,omitempty"`
	TokenCount         int       `json:"token_count,omitempty"`
	RetrievedChunks    int       `json:"retrieved_chunks,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}
