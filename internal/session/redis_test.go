package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/quartzlabs/turnstile/internal/chat"
	"github.com/quartzlabs/turnstile/internal/session"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return session.NewRedisStore(client, ttl), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should round trip messages through redis", func(t *testing.T) {
		store, _ := newRedisStore(t, time.Hour)

		require.NoError(t, store.Append(ctx, "s1",
			chat.Message{Role: "user", Content: "hello"},
			chat.Message{Role: "assistant", Content: "hi"},
		))

		history, err := store.History(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, "user", history[0].Role)
		require.Equal(t, "hello", history[0].Content)
		require.Equal(t, "assistant", history[1].Role)
	})

	t.Run("should return empty history for missing sessions", func(t *testing.T) {
		store, _ := newRedisStore(t, time.Hour)

		history, err := store.History(ctx, "missing")
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("should set a rolling ttl on append", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Hour)

		require.NoError(t, store.Append(ctx, "s1", chat.Message{Role: "user", Content: "a"}))
		require.Equal(t, time.Hour, mr.TTL("session:s1"))

		mr.FastForward(30 * time.Minute)
		require.NoError(t, store.Append(ctx, "s1", chat.Message{Role: "user", Content: "b"}))
		require.Equal(t, time.Hour, mr.TTL("session:s1"))
	})

	t.Run("should expire sessions after the ttl", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Hour)

		require.NoError(t, store.Append(ctx, "s1", chat.Message{Role: "user", Content: "a"}))
		mr.FastForward(2 * time.Hour)

		history, err := store.History(ctx, "s1")
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("should clear a session", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Hour)

		require.NoError(t, store.Append(ctx, "s1", chat.Message{Role: "user", Content: "a"}))
		require.NoError(t, store.Clear(ctx, "s1"))
		require.False(t, mr.Exists("session:s1"))
	})

	t.Run("should skip empty appends", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Hour)

		require.NoError(t, store.Append(ctx, "s1"))
		require.False(t, mr.Exists("session:s1"))
	})
}
