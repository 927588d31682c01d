package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tabledash/billing/pkg/paystack"
)

// PaystackProvider implements BillingProvider on top of the Paystack API client.
type PaystackProvider struct {
	client   *paystack.Client
	planCode string
}

// NewPaystackProvider creates a provider that subscribes customers to the client's plan code.
func NewPaystackProvider(client *paystack.Client) (*PaystackProvider, error) {
	if client == nil {
		return nil, ErrMissingPaystackClient
	}
	if client.PlanCode() == "" {
		return nil, ErrMissingPlanCode
	}
	return &PaystackProvider{client: client, planCode: client.PlanCode()}, nil
}

// CreateCustomer registers email with Paystack and returns the customer code.
func (p *PaystackProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	customer, err := p.client.CreateCustomer(ctx, email)
	if err != nil {
		return "", err
	}
	return customer.CustomerCode, nil
}

// CreateCheckoutLink initializes a plan transaction and returns its checkout URL and reference.
func (p *PaystackProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	auth, err := p.client.InitializeTransaction(ctx, paystack.TransactionRequest{
		Email:    req.Email,
		Amount:   PlanAmountKobo(),
		Plan:     p.planCode,
		Customer: req.CustomerCode,
		Metadata: map[string]any{
			"business_id":       req.BusinessID,
			"user_id":           req.UserID,
			"subscription_id":   req.SubscriptionID.String(),
			"subscription_type": SubscriptionType,
			"is_trial":          req.IsTrial,
		},
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutLink{URL: auth.AuthorizationURL, Reference: auth.Reference}, nil
}

// VerifyCheckout looks up a transaction by reference; amounts come back in naira.
func (p *PaystackProvider) VerifyCheckout(ctx context.Context, reference string) (*CheckoutResult, error) {
	tx, err := p.client.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Successful:   tx.Successful(),
		Amount:       KoboToNaira(tx.Amount),
		CustomerCode: tx.Customer.CustomerCode,
		PlanCode:     tx.PlanCode(),
		Message:      tx.GatewayResponse,
	}, nil
}

// DisableSubscription stops recurring billing for a Paystack subscription code.
func (p *PaystackProvider) DisableSubscription(ctx context.Context, subscriptionCode, emailToken string) error {
	return p.client.DisableSubscription(ctx, subscriptionCode, emailToken)
}

// ParseWebhook verifies the signature over the raw bytes, then normalizes the payload.
func (p *PaystackProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	if err := p.client.VerifyWebhook(payload, signature); err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	return NormalizePaystackEvent(payload)
}

// NormalizePaystackEvent maps a Paystack webhook body to a WebhookEvent.
// Paystack nests the same fields differently across event kinds, so every
// field is probed in a fixed order.
func NormalizePaystackEvent(payload []byte) (*WebhookEvent, error) {
	var raw struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWebhookPayload, err)
	}
	if raw.Event == "" {
		return nil, fmt.Errorf("%w: event name is missing", ErrInvalidWebhookPayload)
	}

	data := raw.Data
	event := &WebhookEvent{
		Type:          mapPaystackEventType(raw.Event),
		ProviderEvent: raw.Event,
		CustomerCode: firstString(data,
			[]string{"customer", "customer_code"},
			[]string{"customer", "customerCode"},
			[]string{"customer_code"},
		),
		SubscriptionCode: firstString(data,
			[]string{"subscription", "subscription_code"},
			[]string{"subscription", "subscriptionCode"},
			[]string{"subscription_code"},
		),
		EmailToken: firstString(data,
			[]string{"email_token"},
			[]string{"subscription", "email_token"},
		),
		Status: firstString(data,
			[]string{"subscription", "status"},
			[]string{"status"},
		),
		ChargeStatus:    firstString(data, []string{"status"}),
		NextPaymentDate: firstTime(data,
			[]string{"subscription", "next_payment_date"},
			[]string{"next_payment_date"},
			[]string{"next_payment_at"},
		),
		DeliveryKey: DeliveryKey(payload),
	}

	return event, nil
}

func mapPaystackEventType(name string) EventType {
	switch name {
	case "subscription.create", "subscription.enable":
		return EventSubscriptionActivated
	case "charge.success":
		return EventPaymentSucceeded
	case "invoice.payment_failed", "charge.failed":
		return EventPaymentFailed
	case "subscription.disable", "subscription.cancelled":
		return EventSubscriptionCancelled
	default:
		return EventUnknown
	}
}

func lookup(data map[string]any, path []string) (any, bool) {
	var cur any = data
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func firstString(data map[string]any, paths ...[]string) string {
	for _, path := range paths {
		v, ok := lookup(data, path)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

func firstTime(data map[string]any, paths ...[]string) *time.Time {
	for _, path := range paths {
		v, ok := lookup(data, path)
		if !ok {
			continue
		}
		switch x := v.(type) {
		case string:
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				t = t.UTC()
				return &t
			}
		case float64:
			if x > 0 {
				t := time.Unix(int64(x), 0).UTC()
				return &t
			}
		}
	}
	return nil
}
