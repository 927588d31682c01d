package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MutateFunc changes a subscription in place inside a store transaction.
// Returning ErrNoChange leaves the row untouched; any other error aborts the write.
type MutateFunc func(sub *Subscription) error

// Store persists subscription records. Implementations must write the company
// mirror (subscription_status, current_period_end) in the same transaction as
// every record change made through Create, Mutate and ExpireTrial.
type Store interface {
	// Create inserts a new record.
	Create(ctx context.Context, sub *Subscription) error

	// Get returns the record by id or ErrSubscriptionNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// Latest returns the most recently created record of a business or ErrSubscriptionNotFound.
	Latest(ctx context.Context, businessID string) (*Subscription, error)

	// FindByReference returns the record carrying the checkout reference or ErrSubscriptionNotFound.
	FindByReference(ctx context.Context, reference string) (*Subscription, error)

	// FindByProviderCodes returns the first record matching the customer code
	// or the subscription code. Empty codes never match.
	FindByProviderCodes(ctx context.Context, customerCode, subscriptionCode string) (*Subscription, error)

	// Mutate loads the row under a lock, applies fn and persists the result.
	// Returns the stored record; when fn returns ErrNoChange the unchanged record is returned.
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*Subscription, error)

	// ExpireTrial flips a trialing record whose trial ended at or before now to expired.
	// Reports whether this call changed the row; repeating it is harmless.
	ExpireTrial(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// Deduper remembers webhook deliveries that were already applied.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string) error
}
