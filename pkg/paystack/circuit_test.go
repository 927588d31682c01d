package paystack_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tabledash/billing/pkg/paystack"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	t.Run("opens at threshold", func(t *testing.T) {
		t.Parallel()
		cb := paystack.NewCircuitBreaker(3, 1, time.Minute)

		cb.RecordFailure()
		cb.RecordFailure()
		assert.Equal(t, paystack.CircuitClosed, cb.State())
		assert.True(t, cb.Allow())

		cb.RecordFailure()
		assert.Equal(t, paystack.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets failure count", func(t *testing.T) {
		t.Parallel()
		cb := paystack.NewCircuitBreaker(2, 1, time.Minute)

		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		assert.Equal(t, paystack.CircuitClosed, cb.State())
	})

	t.Run("half-open probe closes on success", func(t *testing.T) {
		t.Parallel()
		clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		cb := paystack.NewCircuitBreaker(1, 1, 30*time.Second).WithClock(clock.Now)

		cb.RecordFailure()
		clock.Advance(29 * time.Second)
		assert.False(t, cb.Allow())

		clock.Advance(time.Second)
		assert.True(t, cb.Allow())
		assert.Equal(t, paystack.CircuitHalfOpen, cb.State())

		cb.RecordSuccess()
		assert.Equal(t, paystack.CircuitClosed, cb.State())
	})

	t.Run("half-open probe reopens on failure", func(t *testing.T) {
		t.Parallel()
		clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		cb := paystack.NewCircuitBreaker(1, 1, 30*time.Second).WithClock(clock.Now)

		cb.RecordFailure()
		clock.Advance(30 * time.Second)
		assert.True(t, cb.Allow())

		cb.RecordFailure()
		assert.Equal(t, paystack.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("state names", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "closed", paystack.CircuitClosed.String())
		assert.Equal(t, "open", paystack.CircuitOpen.String())
		assert.Equal(t, "half-open", paystack.CircuitHalfOpen.String())
		assert.Equal(t, "unknown", paystack.CircuitState(9).String())
	})
}
