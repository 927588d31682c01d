package subscription

import (
	"context"
	"time"

	"github.com/tabledash/billing/pkg/statemachine"
)

// change is what a webhook transition acts on.
type change struct {
	sub   *Subscription
	event *WebhookEvent
	now   time.Time
}

type lifecycle = statemachine.Machine[SubscriptionStatus, EventType, *change]

// newLifecycle builds the webhook transition table:
//
//	trialing|active|past_due|expired --activated-->      active
//	trialing|active|past_due|expired --charge success--> active
//	trialing|active|past_due         --failed-->         past_due, or cancelled at the attempt limit
//	trialing|active|past_due|expired --cancelled-->      cancelled
//
// Cancelled has no outgoing edges. A failed charge on an expired trial has
// no billing cycle to fail and is not an edge either.
func newLifecycle(cfg Config) *lifecycle {
	open := []SubscriptionStatus{StatusTrialing, StatusActive, StatusPastDue, StatusExpired}
	billed := []SubscriptionStatus{StatusTrialing, StatusActive, StatusPastDue}

	return statemachine.NewBuilder[SubscriptionStatus, EventType, *change]().
		From(open...).When(EventSubscriptionActivated).To(StatusActive).Do(activate).Add().
		From(open...).When(EventPaymentSucceeded).To(StatusActive).If(chargeSucceeded).Do(settle).Add().
		From(billed...).When(EventPaymentFailed).To(StatusCancelled).If(attemptLimitReached(cfg)).Do(cancelForFailures).Add().
		From(billed...).When(EventPaymentFailed).To(StatusPastDue).Do(startGracePeriod(cfg)).Add().
		From(open...).When(EventSubscriptionCancelled).To(StatusCancelled).Do(cancelByProvider).Add().
		MustBuild()
}

func chargeSucceeded(_ context.Context, c *change) bool {
	return c.event.ChargeStatus == "success"
}

func attemptLimitReached(cfg Config) statemachine.Guard[*change] {
	return func(_ context.Context, c *change) bool {
		limit := c.sub.MaxFailedAttempts
		if limit <= 0 {
			limit = cfg.MaxFailedAttempts
		}
		return c.sub.FailedAttempts+1 >= limit
	}
}

func activate(_ context.Context, _, _ SubscriptionStatus, c *change) error {
	if c.event.SubscriptionCode != "" {
		c.sub.PaystackSubscriptionCode = c.event.SubscriptionCode
	}
	if c.event.EmailToken != "" {
		c.sub.EmailToken = c.event.EmailToken
	}
	advancePeriod(c.sub, c.event.NextPaymentDate)
	return nil
}

func settle(_ context.Context, _, _ SubscriptionStatus, c *change) error {
	c.sub.FailedAttempts = 0
	c.sub.LastFailedAt = nil
	c.sub.GracePeriodEnds = nil
	advancePeriod(c.sub, c.event.NextPaymentDate)
	return nil
}

func recordFailure(c *change) {
	now := c.now
	c.sub.FailedAttempts++
	c.sub.LastFailedAt = &now
}

func cancelForFailures(_ context.Context, _, _ SubscriptionStatus, c *change) error {
	recordFailure(c)
	now := c.now
	c.sub.CancelledAt = &now
	c.sub.CancellationReason = ReasonMaxFailedAttempts
	c.sub.GracePeriodEnds = nil
	return nil
}

func startGracePeriod(cfg Config) statemachine.Action[SubscriptionStatus, *change] {
	return func(_ context.Context, _, _ SubscriptionStatus, c *change) error {
		recordFailure(c)
		graceEnds := c.now.Add(cfg.gracePeriod())
		c.sub.GracePeriodEnds = &graceEnds
		return nil
	}
}

func cancelByProvider(_ context.Context, _, _ SubscriptionStatus, c *change) error {
	now := c.now
	c.sub.CancelledAt = &now
	return nil
}
