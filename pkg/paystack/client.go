package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/metrics"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

// Client calls the Paystack REST API with per-attempt timeouts, retries on
// temporary failures and a circuit breaker shared by all operations.
type Client struct {
	cfg     Config
	baseURL *url.URL
	http    *http.Client
	backoff BackoffStrategy
	breaker *CircuitBreaker
	logger  *slog.Logger
	hooks   []AttemptHook
}

// New creates a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: secret key is required", ErrInvalidConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL must be http or https", ErrInvalidConfiguration)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	c := &Client{
		cfg:     cfg,
		baseURL: base,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		backoff: DefaultBackoff(),
		breaker: NewCircuitBreaker(cfg.CircuitFailureThreshold, 1, cfg.CircuitRecoveryTimeout),
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// PlanCode returns the configured recurring plan code.
func (c *Client) PlanCode() string {
	return c.cfg.PlanCode
}

// SecretKey returns the key used to sign webhooks.
func (c *Client) SecretKey() string {
	return c.cfg.SecretKey
}

// VerifyWebhook checks a webhook body against its signature header.
func (c *Client) VerifyWebhook(payload []byte, signature string) error {
	return VerifySignature(c.cfg.SecretKey, payload, signature)
}

// envelope is the wrapper every Paystack response uses.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do runs one API operation and decodes envelope data into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
	}

	if c.breaker != nil && !c.breaker.Allow() {
		metrics.GatewayRequests.WithLabelValues(op, "circuit_open").Inc()
		return ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(c.backoff.NextInterval(attempt)):
			}
		}

		started := time.Now()
		env, status, err := c.attempt(ctx, op, method, path, payload)
		c.observe(AttemptResult{
			Operation:  op,
			Attempt:    attempt + 1,
			StatusCode: status,
			Duration:   time.Since(started),
			Err:        err,
		})

		if c.breaker != nil {
			// Provider declines do not count against the breaker.
			if err == nil || errors.Is(err, ErrPermanentFailure) {
				c.breaker.RecordSuccess()
			} else {
				c.breaker.RecordFailure()
			}
		}

		if err == nil {
			metrics.GatewayRequests.WithLabelValues(op, "success").Inc()
			if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
				return nil
			}
			if err := json.Unmarshal(env.Data, out); err != nil {
				return fmt.Errorf("%w: %s data: %w", ErrInvalidResponse, op, err)
			}
			return nil
		}

		lastErr = err
		c.logger.WarnContext(ctx, "paystack request failed",
			logger.Operation(op),
			logger.Attempt(attempt+1),
			logger.Error(err),
		)

		if !IsRetryable(err) {
			metrics.GatewayRequests.WithLabelValues(op, "rejected").Inc()
			return err
		}
	}

	metrics.GatewayRequests.WithLabelValues(op, "failed").Inc()
	return fmt.Errorf("%w after %d attempts: %w", ErrRequestFailed, c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) attempt(ctx context.Context, op, method, path string, payload []byte) (*envelope, int, error) {
	start := time.Now()
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, 0, fmt.Errorf("%w: %s: %w", ErrTimeout, op, err)
		}
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("%w: %s: %w", ErrPermanentFailure, op, ctx.Err())
		}
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrTemporaryFailure, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s: reading body: %w", ErrTemporaryFailure, op, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Operation: op, StatusCode: resp.StatusCode, Message: env.Message}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if isPermanentStatus(resp.StatusCode) {
			return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrPermanentFailure, apiErr)
		}
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrTemporaryFailure, apiErr)
	}

	if decodeErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s: %w", ErrInvalidResponse, op, decodeErr)
	}
	if !env.Status {
		apiErr := &APIError{Operation: op, StatusCode: resp.StatusCode, Message: env.Message}
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrPermanentFailure, apiErr)
	}

	return &env, resp.StatusCode, nil
}

func (c *Client) observe(r AttemptResult) {
	for _, h := range c.hooks {
		h(r)
	}
}

// isPermanentStatus treats 4xx as final except the codes that signal a busy or slow server.
func isPermanentStatus(code int) bool {
	if code < 400 || code >= 500 {
		return false
	}
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}
