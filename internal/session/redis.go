// Package session provides chat-session history stores: a redis-backed
// store for production and an in-memory store for development and tests.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quartzlabs/turnstile/internal/chat"
	"github.com/quartzlabs/turnstile/internal/observability"
)

const keyPrefix = "session:"

// RedisStore keeps each session's history in a redis list with a rolling
// TTL, refreshed on every append.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Append adds messages to the session's history.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	key := keyPrefix + sessionID

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		observability.FromContext(ctx).Error("session append failed",
			observability.String("session_id", sessionID),
			observability.Error(err))
		return fmt.Errorf("failed to append session history: %w", err)
	}

	return nil
}

// History returns the session's messages in append order. A missing
// session yields an empty history, not an error.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]chat.Message, error) {
	raw, err := s.client.LRange(ctx, keyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	msgs := make([]chat.Message, 0, len(raw))
	for _, item := range raw {
		var msg chat.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// Clear removes the session and its history.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
