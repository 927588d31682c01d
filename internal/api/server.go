package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tabledash/billing/pkg/clientip"
	"github.com/tabledash/billing/pkg/httpserver"
	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/metrics"
	"github.com/tabledash/billing/pkg/ratelimiter"
	"github.com/tabledash/billing/pkg/requestid"
	"github.com/tabledash/billing/pkg/session"
	"github.com/tabledash/billing/pkg/subscription"
)

// DefaultWebhookBodyLimit caps provider webhook bodies.
const DefaultWebhookBodyLimit int64 = 1 << 20

// Server holds the billing HTTP handlers.
type Server struct {
	svc         subscription.Service
	sessions    *session.Controller
	logger      *slog.Logger
	menuBaseURL string
	checks      []func(context.Context) error
	bodyLimit   int64
	limiter     *ratelimiter.Bucket
	webhookIPs  *clientip.Allowlist
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessions enables the lock-state stream and logout endpoints.
func WithSessions(c *session.Controller) Option {
	return func(s *Server) { s.sessions = c }
}

// WithMenuBaseURL enables the menu QR endpoint.
func WithMenuBaseURL(base string) Option {
	return func(s *Server) { s.menuBaseURL = base }
}

// WithReadinessChecks sets the checks behind /readyz.
func WithReadinessChecks(checks ...func(context.Context) error) Option {
	return func(s *Server) { s.checks = append(s.checks, checks...) }
}

// WithWebhookBodyLimit overrides DefaultWebhookBodyLimit.
func WithWebhookBodyLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.bodyLimit = n
		}
	}
}

// WithRateLimiter throttles the endpoints that call Paystack, per client IP.
func WithRateLimiter(b *ratelimiter.Bucket) Option {
	return func(s *Server) { s.limiter = b }
}

// WithWebhookAllowlist rejects webhook deliveries from addresses outside a.
// An empty list accepts every address.
func WithWebhookAllowlist(a *clientip.Allowlist) Option {
	return func(s *Server) {
		if a.Len() > 0 {
			s.webhookIPs = a
		}
	}
}

// New creates the HTTP layer over svc. Panics if svc is nil.
func New(svc subscription.Service, opts ...Option) *Server {
	if svc == nil {
		panic("api: subscription service is required")
	}
	s := &Server{
		svc:       svc,
		logger:    slog.New(slog.DiscardHandler),
		bodyLimit: DefaultWebhookBodyLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router mounts every billing route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", httpserver.HealthCheckHandler(s.logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(s.logger, s.checks...))
	r.Handle("/metrics", metrics.Handler())

	r.With(s.throttle("initialize")).Post("/initialize-subscription", s.initializeSubscription)
	r.With(s.throttle("verify")).Get("/verify/{reference}", s.verifyPayment)
	r.With(s.throttle("cancel")).Post("/cancel-subscription", s.cancelSubscription)
	r.Post("/webhook", s.webhook)

	r.Route("/subscription-status/{businessId}", func(r chi.Router) {
		r.Get("/", s.subscriptionStatus)
		if s.sessions != nil {
			r.Get("/stream", s.streamLockState)
		}
	})
	if s.sessions != nil {
		r.Post("/sessions/{sessionId}/logout", s.logout)
	}
	if s.menuBaseURL != "" {
		r.Get("/businesses/{businessId}/menu-qr.png", s.menuQR)
	}

	return r
}

// throttle limits a route per client IP when a limiter is configured.
func (s *Server) throttle(route string) func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	byIP := func(r *http.Request) string { return clientip.FromContext(r.Context()) }
	perClient := ratelimiter.Composite(ratelimiter.Static(route), byIP)
	// Requests without a resolvable client address are not limited.
	key := func(r *http.Request) string {
		if byIP(r) == "" {
			return ""
		}
		return perClient(r)
	}
	deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "rate limit exceeded", logger.Operation(route))
		writeJSON(w, http.StatusTooManyRequests, errorBody{Success: false, Error: "Too many requests, try again shortly"})
	})
	return ratelimiter.Middleware(s.limiter, key, deny)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Status(http.StatusText(ww.Status())),
			slog.Int("code", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
