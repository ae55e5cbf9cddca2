package app

import "botgpt-backend/internal/model"

const DefaultHistoryWindow = 12

// HistoryWindow picks which part of an ordered history goes into the prompt.
type HistoryWindow interface {
	Select(history []model.Message) []model.Message
}

// LastN keeps the most recent N messages. It counts messages, not tokens.
type LastN int

func (n LastN) Select(history []model.Message) []model.Message {
	limit := int(n)
	if limit <= 0 {
		limit = DefaultHistoryWindow
	}
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
