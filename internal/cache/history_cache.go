package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"botgpt-backend/internal/model"
)

// setUnlessDirty writes KEYS[1] only while the dirty marker KEYS[2] is absent.
var setUnlessDirty = redisv9.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// HistoryCache keeps the ordered message history of a conversation in Redis.
// A dirty marker set on every write blocks refills that may carry rows read
// before that write.
type HistoryCache struct {
	client   *redisv9.Client
	ttl      time.Duration
	dirtyTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, ttl, dirtyTTL time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if dirtyTTL <= 0 {
		dirtyTTL = 5 * time.Second
	}
	return &HistoryCache{client: client, ttl: ttl, dirtyTTL: dirtyTTL}
}

func (c *HistoryCache) GetHistory(ctx context.Context, conversationID uint) ([]model.Message, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(conversationID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return messages, true, nil
}

// SetHistory stores messages unless the conversation is marked dirty. A
// skipped write is not an error.
func (c *HistoryCache) SetHistory(ctx context.Context, conversationID uint, messages []model.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	keys := []string{historyKey(conversationID), dirtyKey(conversationID)}
	if err := setUnlessDirty.Run(ctx, c.client, keys, payload, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) DeleteHistory(ctx context.Context, conversationID uint) error {
	if err := c.client.Del(ctx, historyKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) MarkDirty(ctx context.Context, conversationID uint) error {
	if err := c.client.Set(ctx, dirtyKey(conversationID), "1", c.dirtyTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) IsDirty(ctx context.Context, conversationID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(conversationID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func historyKey(conversationID uint) string {
	return fmt.Sprintf("conversation:history:%d", conversationID)
}

func dirtyKey(conversationID uint) string {
	return fmt.Sprintf("conversation:history:dirty:%d", conversationID)
}
