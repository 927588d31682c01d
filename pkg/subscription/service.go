package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service defines the subscription lifecycle operations exposed to the HTTP layer.
type Service interface {
	InitializeSubscription(ctx context.Context, req InitializeRequest) (*Initialization, error)
	VerifyPayment(ctx context.Context, reference string) (*Verification, error)
	CancelSubscription(ctx context.Context, subscriptionID uuid.UUID) error
	ResolveStatus(ctx context.Context, businessID string) (*Status, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type service struct {
	provider  BillingProvider
	store     Store
	dedup     Deduper
	cfg       Config
	lifecycle *lifecycle
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a new Service with the given dependencies.
// Panics if provider or store is nil to fail fast during initialization.
func NewService(provider BillingProvider, store Store, opts ...ServiceOption) Service {
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}

	s := &service{
		provider: provider,
		store:    store,
		cfg:      DefaultConfig(),
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cfg = s.cfg.withDefaults()
	s.lifecycle = newLifecycle(s.cfg)

	return s
}

func (s *service) clock() time.Time {
	return s.now().UTC()
}
