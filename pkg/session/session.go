package session

import (
	"context"
	"sync"

	"github.com/tabledash/billing/pkg/broadcast"
)

// Session is one logged-in dashboard view of a business. It owns the access
// poller goroutine; the poller stops when the session is logged out.
type Session struct {
	ID         string
	BusinessID string

	cancel  context.CancelFunc
	done    chan struct{}
	refresh chan struct{}
	states  *broadcast.MemoryBroadcaster[LockState]

	mu       sync.RWMutex
	last     LockState
	hasState bool
}

// State returns the result of the latest completed check.
func (s *Session) State() (LockState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasState
}

// Subscribe streams lock states until ctx is done or the session ends.
// The latest known state, if any, is delivered first.
func (s *Session) Subscribe(ctx context.Context) broadcast.Subscriber[LockState] {
	sub := s.states.Subscribe(ctx)
	if st, ok := s.State(); ok {
		// A broadcast racing with this one leaves the newer value buffered last.
		_ = s.states.Broadcast(ctx, broadcast.Message[LockState]{Data: st})
	}
	return sub
}

// Refresh asks the poller to check now instead of waiting for the next tick.
func (s *Session) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Done is closed once the poller has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) store(st LockState) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = !s.hasState || s.last.Locked != st.Locked || s.last.Status != st.Status
	s.last = st
	s.hasState = true
	return changed
}
