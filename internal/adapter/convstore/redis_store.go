package convstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"retrieval-engine/internal/domain"
)

const summaryKeyPrefix = "conversation:summary:"

// RedisStore reads per-session conversation summaries from Redis. The
// summaries are written by the chat-history service; the retrieval core
// only ever reads them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetSummary returns the prior-turn summary for a session, or an empty
// string when none exists.
func (s *RedisStore) GetSummary(ctx context.Context, sessionID string) (string, error) {
	summary, err := s.client.Get(ctx, summaryKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read conversation summary: %w", err)
	}
	return summary, nil
}

var _ domain.ConversationStore = (*RedisStore)(nil)
