package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) (T, bool) {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive():
		return msg.Data, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		var zero T
		return zero, false
	}
}

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("delivers to all subscribers", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[string](4)
		t.Cleanup(func() { _ = b.Close() })

		a := b.Subscribe(context.Background())
		c := b.Subscribe(context.Background())

		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[string]{Data: "locked"}))

		got, ok := receive(t, a)
		require.True(t, ok)
		assert.Equal(t, "locked", got)

		got, ok = receive(t, c)
		require.True(t, ok)
		assert.Equal(t, "locked", got)
	})

	t.Run("slow subscriber keeps the latest message", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		t.Cleanup(func() { _ = b.Close() })

		sub := b.Subscribe(context.Background())
		for i := 1; i <= 5; i++ {
			require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: i}))
		}

		got, ok := receive(t, sub)
		require.True(t, ok)
		assert.Equal(t, 5, got)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		t.Cleanup(func() { _ = b.Close() })

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		assert.Equal(t, 1, b.Subscribers())

		cancel()

		_, ok := receive(t, sub)
		assert.False(t, ok)
		assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		sub := b.Subscribe(context.Background())

		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		assert.Equal(t, 0, b.Subscribers())

		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
	})

	t.Run("closed broadcaster", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		live := b.Subscribe(context.Background())
		require.NoError(t, b.Close())

		_, ok := receive(t, live)
		assert.False(t, ok)

		late := b.Subscribe(context.Background())
		_, ok = receive(t, late)
		assert.False(t, ok)

		err := b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1})
		require.ErrorIs(t, err, broadcast.ErrClosed)
	})
}
