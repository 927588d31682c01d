package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed when the
	// subscription ends.
	Receive() <-chan Message[T]

	// Close ends the subscription. Safe to call more than once.
	Close() error
}

// Broadcaster fans messages out to subscribers without blocking the sender.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber that lives until ctx is done or Close is called.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every subscriber.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close ends every subscription.
	Close() error
}

type subscriber[T any] struct {
	mu     sync.Mutex
	ch     chan Message[T]
	closed bool
	onDone func()
	stop   func() bool
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan Message[T], bufferSize)}
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	onDone, stop := s.onDone, s.stop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if onDone != nil {
		onDone()
	}
	return nil
}

// send delivers msg, evicting the oldest buffered message when the buffer is
// full so a slow reader always ends up with the newest value.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	for {
		select {
		case s.ch <- msg:
			return true
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
