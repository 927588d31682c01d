package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/metrics"
)

const (
	outcomeApplied   = "applied"
	outcomeIgnored   = "ignored"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// HandleWebhook verifies, normalizes and applies a provider webhook.
// It returns ErrWebhookVerificationFailed for bad signatures and ErrPersistence
// when the change could not be stored. Signed bodies that cannot be parsed,
// events for unknown subscriptions and unhandled event kinds return nil so the
// provider stops redelivering them.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, ErrInvalidWebhookPayload) && !errors.Is(err, ErrWebhookVerificationFailed) {
			metrics.WebhookEvents.WithLabelValues("", outcomeIgnored).Inc()
			s.logger.WarnContext(ctx, "signed webhook with unreadable payload ignored", logger.Error(err))
			return nil
		}
		metrics.WebhookEvents.WithLabelValues("", outcomeRejected).Inc()
		s.logger.WarnContext(ctx, "webhook rejected", logger.Error(err))
		return err
	}
	if event.DeliveryKey == "" {
		event.DeliveryKey = DeliveryKey(payload)
	}

	log := s.logger.With(logger.EventType(event.ProviderEvent))

	outcome, err := s.applyWebhook(ctx, log, event)
	metrics.WebhookEvents.WithLabelValues(event.ProviderEvent, outcome).Inc()
	return err
}

func (s *service) applyWebhook(ctx context.Context, log *slog.Logger, event *WebhookEvent) (string, error) {
	if s.dedup != nil {
		seen, err := s.dedup.Seen(ctx, event.DeliveryKey)
		if err != nil {
			log.WarnContext(ctx, "webhook dedup lookup failed", logger.Error(err))
		} else if seen {
			log.InfoContext(ctx, "duplicate webhook delivery skipped")
			return outcomeDuplicate, nil
		}
	}

	if event.Type == EventUnknown {
		log.DebugContext(ctx, "unhandled webhook event")
		return outcomeIgnored, nil
	}

	sub, err := s.store.FindByProviderCodes(ctx, event.CustomerCode, event.SubscriptionCode)
	if errors.Is(err, ErrSubscriptionNotFound) {
		log.InfoContext(ctx, "webhook for unknown subscription ignored",
			logger.CustomerCode(event.CustomerCode),
		)
		return outcomeIgnored, nil
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to look up subscription", logger.Error(err))
		return outcomeFailed, errors.Join(ErrPersistence, err)
	}

	log = log.With(logger.SubscriptionID(sub.ID), logger.BusinessID(sub.BusinessID))

	now := s.clock()
	var from SubscriptionStatus
	changed := false
	updated, err := s.store.Mutate(ctx, sub.ID, func(r *Subscription) error {
		if r.LastEventKey == event.DeliveryKey {
			return ErrNoChange
		}
		if r.Status.IsTerminal() {
			return ErrNoChange
		}
		from = r.Status
		if !s.transition(ctx, r, event, now) {
			return ErrNoChange
		}
		r.LastEventKey = event.DeliveryKey
		r.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to apply webhook", logger.Error(err))
		return outcomeFailed, errors.Join(ErrPersistence, err)
	}

	if s.dedup != nil {
		if err := s.dedup.Remember(ctx, event.DeliveryKey); err != nil {
			log.WarnContext(ctx, "failed to remember webhook delivery", logger.Error(err))
		}
	}

	if !changed {
		log.InfoContext(ctx, "webhook left subscription unchanged", logger.Status(string(updated.Status)))
		return outcomeIgnored, nil
	}
	if from != updated.Status {
		s.recordTransition(ctx, updated, from)
	}

	return outcomeApplied, nil
}

// transition applies a normalized event to a non-terminal record through the
// lifecycle table. It reports whether the record changed.
func (s *service) transition(ctx context.Context, r *Subscription, event *WebhookEvent, now time.Time) bool {
	to, err := s.lifecycle.Fire(ctx, r.Status, event.Type, &change{sub: r, event: event, now: now})
	if err != nil {
		return false
	}
	r.Status = to
	return true
}

func advancePeriod(r *Subscription, next *time.Time) {
	if next == nil || next.IsZero() {
		return
	}
	r.CurrentPeriodEnd = next.UTC()
	r.NextBillingDate = truncateToDate(next.UTC())
}
