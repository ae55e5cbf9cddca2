package app

import (
	"context"
	"log"
	"time"

	"botgpt-backend/internal/model"
)

type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, conversationID uint) error
	MarkDirty(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.ConversationEvent) error
}

type Option func(*conversationHooks)

// WithHistoryCache enables the Redis history cache. Pass nothing to disable.
func WithHistoryCache(c HistoryCache) Option {
	return func(h *conversationHooks) { h.cache = c }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(h *conversationHooks) { h.events = p }
}

// conversationHooks wraps the optional side channels. Failures there are
// logged and never reach the caller.
type conversationHooks struct {
	cache  HistoryCache
	events EventPublisher
	now    func() time.Time
}

func newHooks(opts []Option) *conversationHooks {
	h := &conversationHooks{now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *conversationHooks) cachedHistory(ctx context.Context, conversationID uint) ([]model.Message, bool) {
	if h.cache == nil {
		return nil, false
	}
	dirty, err := h.cache.IsDirty(ctx, conversationID)
	if err != nil {
		log.Printf("history cache dirty check conversation=%d failed: %v", conversationID, err)
		return nil, false
	}
	if dirty {
		return nil, false
	}
	msgs, hit, err := h.cache.GetHistory(ctx, conversationID)
	if err != nil {
		log.Printf("history cache get conversation=%d failed: %v", conversationID, err)
		return nil, false
	}
	return msgs, hit
}

func (h *conversationHooks) storeHistory(ctx context.Context, conversationID uint, msgs []model.Message) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetHistory(ctx, conversationID, msgs); err != nil {
		log.Printf("history cache set conversation=%d failed: %v", conversationID, err)
	}
}

// invalidate marks the conversation dirty before dropping the entry, so a
// reader holding pre-write rows cannot store them afterwards.
func (h *conversationHooks) invalidate(ctx context.Context, conversationID uint) {
	if h.cache == nil {
		return
	}
	if err := h.cache.MarkDirty(ctx, conversationID); err != nil {
		log.Printf("history cache mark dirty conversation=%d failed: %v", conversationID, err)
	}
	if err := h.cache.DeleteHistory(ctx, conversationID); err != nil {
		log.Printf("history cache delete conversation=%d failed: %v", conversationID, err)
	}
}

func (h *conversationHooks) publish(ctx context.Context, event model.ConversationEvent) {
	if h.events == nil {
		return
	}
	event.OccurredAt = h.now().UTC()
	if err := h.events.Publish(ctx, event); err != nil {
		log.Printf("publish %s conversation=%d failed: %v", event.Type, event.ConversationID, err)
	}
}

func (h *conversationHooks) conversationDeleted(ctx context.Context, conversationID uint) {
	h.invalidate(ctx, conversationID)
	h.publish(ctx, model.ConversationEvent{
		Type:           model.EventConversationDeleted,
		ConversationID: conversationID,
	})
}
