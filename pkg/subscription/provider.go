package subscription

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingProvider is the narrow view of the payment gateway the lifecycle needs.
// ParseWebhook must verify the signature before it looks at the payload.
type BillingProvider interface {
	CreateCustomer(ctx context.Context, email string) (string, error)
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)
	VerifyCheckout(ctx context.Context, reference string) (*CheckoutResult, error)
	DisableSubscription(ctx context.Context, subscriptionCode, emailToken string) error
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains data needed to initialize a hosted checkout.
type CheckoutRequest struct {
	Email          string
	CustomerCode   string
	BusinessID     string
	UserID         string
	SubscriptionID uuid.UUID
	IsTrial        bool
}

// CheckoutLink represents an initialized hosted checkout.
type CheckoutLink struct {
	URL       string
	Reference string
}

// CheckoutResult is the outcome of verifying a checkout reference.
type CheckoutResult struct {
	Successful   bool
	Amount       decimal.Decimal
	CustomerCode string
	PlanCode     string
	Message      string
}

// EventType is the normalized billing event kind. The set is closed:
// every provider event maps to one of these or to EventUnknown.
type EventType string

const (
	EventSubscriptionActivated EventType = "subscription_activated"
	EventPaymentSucceeded      EventType = "payment_succeeded"
	EventPaymentFailed         EventType = "payment_failed"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventUnknown               EventType = "unknown"
)

// WebhookEvent is a provider webhook after signature verification and payload normalization.
type WebhookEvent struct {
	Type             EventType
	ProviderEvent    string
	CustomerCode     string
	SubscriptionCode string
	EmailToken       string
	// Status is the subscription status when present, else the event data status.
	Status string
	// ChargeStatus is the event data status only.
	ChargeStatus    string
	NextPaymentDate *time.Time
	// DeliveryKey identifies the exact delivery for redelivery dedup.
	DeliveryKey string
}

// DeliveryKey hashes a raw webhook body. Provider redeliveries carry identical bytes.
func DeliveryKey(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
