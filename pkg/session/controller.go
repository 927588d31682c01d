package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabledash/billing/pkg/broadcast"
	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/metrics"
	"github.com/tabledash/billing/pkg/subscription"
)

// Resolver is the subset of subscription.Service the poller needs.
type Resolver interface {
	ResolveStatus(ctx context.Context, businessID string) (*subscription.Status, error)
}

// Controller owns the dashboard sessions and their access pollers.
type Controller struct {
	resolver Resolver
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewController creates a controller. Pollers run until their session is
// logged out or the controller is shut down.
func NewController(resolver Resolver, opts ...Option) *Controller {
	if resolver == nil {
		panic("session: resolver is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		resolver: resolver,
		interval: subscription.DefaultConfig().PollInterval,
		logger:   slog.New(slog.DiscardHandler),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login starts a session for businessID and its access poller. The first
// check runs immediately.
func (c *Controller) Login(businessID string) (*Session, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, ErrBusinessRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return nil, ErrControllerStopped
	}

	ctx, cancel := context.WithCancel(c.ctx)
	s := &Session{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		cancel:     cancel,
		done:       make(chan struct{}),
		refresh:    make(chan struct{}, 1),
		states:     broadcast.NewMemoryBroadcaster[LockState](1),
	}
	c.sessions[s.ID] = s

	metrics.ActiveSessions.Inc()
	c.wg.Add(1)
	go c.poll(ctx, s)

	c.logger.Info("session started", logger.SessionID(s.ID), logger.BusinessID(businessID))
	return s, nil
}

// Get returns a live session.
func (c *Controller) Get(sessionID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Logout stops the session's poller and waits for it to exit.
func (c *Controller) Logout(sessionID string) error {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	if ok {
		delete(c.sessions, sessionID)
	}
	c.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.cancel()
	<-s.done
	c.logger.Info("session ended", logger.SessionID(s.ID), logger.BusinessID(s.BusinessID))
	return nil
}

// Active returns the number of live sessions.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Shutdown stops every poller and waits for them, or for ctx.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.cancel()
	clear(c.sessions)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) poll(ctx context.Context, s *Session) {
	defer c.wg.Done()
	defer close(s.done)
	defer metrics.ActiveSessions.Dec()
	defer func() { _ = s.states.Close() }()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.check(ctx, s)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx, s)
		case <-s.refresh:
			c.check(ctx, s)
		}
	}
}

// check resolves the status once. A failed lookup keeps the previous state.
func (c *Controller) check(ctx context.Context, s *Session) {
	st, err := c.resolver.ResolveStatus(ctx, s.BusinessID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.LockedChecks.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "access check failed",
			logger.SessionID(s.ID),
			logger.BusinessID(s.BusinessID),
			logger.Error(err),
		)
		return
	}

	state := StateFromStatus(s.BusinessID, st)
	if state.Locked {
		metrics.LockedChecks.WithLabelValues("locked").Inc()
	} else {
		metrics.LockedChecks.WithLabelValues("unlocked").Inc()
	}

	if s.store(state) {
		c.logger.InfoContext(ctx, "dashboard access changed",
			logger.SessionID(s.ID),
			logger.BusinessID(s.BusinessID),
			logger.Status(string(state.Status)),
			slog.Bool("locked", state.Locked),
		)
	}
	_ = s.states.Broadcast(ctx, broadcast.Message[LockState]{Data: state})
}
