package observability_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quartzlabs/turnstile/internal/observability"
)

func TestEventBus_Tail(t *testing.T) {
	ctx := context.Background()

	t.Run("should return events oldest first", func(t *testing.T) {
		bus := observability.NewEventBus(zap.NewNop())

		bus.Publish(ctx, "model_registered", map[string]interface{}{"model_id": 0})
		bus.Publish(ctx, "credits_added", map[string]interface{}{"amount": "1"})

		tail := bus.Tail(0)
		require.Len(t, tail, 2)
		require.Equal(t, "model_registered", tail[0].Type)
		require.Equal(t, "credits_added", tail[1].Type)
	})

	t.Run("should cap the tail at the requested size", func(t *testing.T) {
		bus := observability.NewEventBus(zap.NewNop())

		for i := 0; i < 5; i++ {
			bus.Publish(ctx, fmt.Sprintf("event_%d", i), nil)
		}

		tail := bus.Tail(2)
		require.Len(t, tail, 2)
		require.Equal(t, "event_3", tail[0].Type)
		require.Equal(t, "event_4", tail[1].Type)
	})

	t.Run("should drop the oldest events past the retention bound", func(t *testing.T) {
		bus := observability.NewEventBus(zap.NewNop())

		for i := 0; i < 300; i++ {
			bus.Publish(ctx, fmt.Sprintf("event_%d", i), nil)
		}

		tail := bus.Tail(0)
		require.Len(t, tail, 256)
		require.Equal(t, "event_44", tail[0].Type)
		require.Equal(t, "event_299", tail[255].Type)
	})

	t.Run("should tolerate a nil logger", func(t *testing.T) {
		bus := observability.NewEventBus(nil)

		bus.Publish(ctx, "event", nil)
		require.Len(t, bus.Tail(0), 1)
	})
}
