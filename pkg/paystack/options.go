package paystack

import (
	"log/slog"
	"net/http"
	"time"
)

// AttemptResult describes one HTTP attempt against the API.
type AttemptResult struct {
	Operation  string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// AttemptHook observes every attempt, including retries.
type AttemptHook func(AttemptResult)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBackoff sets the delay strategy between retries.
func WithBackoff(b BackoffStrategy) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithCircuitBreaker replaces the breaker built from Config.
// Pass nil to disable circuit breaking.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// WithLogger sets the logger for failed attempts.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAttemptHook registers an observer for every attempt.
func WithAttemptHook(h AttemptHook) Option {
	return func(c *Client) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}
