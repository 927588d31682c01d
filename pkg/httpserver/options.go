package httpserver

import (
	"context"
	"log/slog"
	"time"
)

// Option configures the server.
type Option func(*Server)

// WithAddr sets the listen address. Empty values are ignored.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithTimeouts sets the read, write and idle timeouts. Zero disables a timeout.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
		s.idleTimeout = idle
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(s *Server) { s.shutdownTimeout = d }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShutdownHook registers fn to run after the listener has drained.
// Hooks run in registration order and share the shutdown deadline.
func WithShutdownHook(fn func(context.Context) error) Option {
	if fn == nil {
		panic("WithShutdownHook: nil hook")
	}
	return func(s *Server) { s.hooks = append(s.hooks, fn) }
}

// WithDrainHook registers fn to run as soon as shutdown starts, concurrently
// with draining. Long-lived streams use it to end their handlers.
func WithDrainHook(fn func()) Option {
	if fn == nil {
		panic("WithDrainHook: nil hook")
	}
	return func(s *Server) { s.drainHooks = append(s.drainHooks, fn) }
}
