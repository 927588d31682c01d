package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/metrics"
)

// InitializeRequest starts a trial and a hosted checkout for a business.
type InitializeRequest struct {
	Email      string `json:"email"`
	BusinessID string `json:"business_id"`
	UserID     string `json:"user_id"`
}

// Validate checks that every field is present.
func (r InitializeRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(r.BusinessID) == "" {
		missing = append(missing, "business_id")
	}
	if strings.TrimSpace(r.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Initialization is the result of starting a subscription.
type Initialization struct {
	AuthorizationURL string
	Reference        string
	Subscription     *Subscription
	DaysLeft         int
}

// Verification is the result of verifying a checkout reference.
type Verification struct {
	Successful   bool
	Message      string
	Subscription *Subscription
}

const (
	MessageActivated          = "Subscription activated successfully"
	MessageVerificationFailed = "Payment verification failed"
	MessageCancelled          = "Subscription cancelled successfully"
)

// InitializeSubscription creates the trial record, registers the customer with
// the provider and opens a checkout for the plan. Steps run in order and a
// failure stops the sequence; the trial record stays usable either way and is
// picked up again by the next call for the same business.
func (s *service) InitializeSubscription(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	log := s.logger.With(logger.BusinessID(req.BusinessID), logger.UserID(req.UserID))

	sub, hadTrial, err := s.resumableRecord(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}

	if sub == nil {
		// A business gets one trial. Later records start ended and wait for payment.
		status, trialEnds := StatusTrialing, now.Add(s.cfg.trialPeriod())
		if hadTrial {
			status, trialEnds = StatusExpired, now
		}
		sub = &Subscription{
			ID:                 uuid.New(),
			BusinessID:         req.BusinessID,
			UserID:             req.UserID,
			Status:             status,
			PlanName:           PlanName,
			PlanType:           PlanType,
			Amount:             PlanAmount(),
			TrialEndsAt:        trialEnds,
			CurrentPeriodStart: now,
			MaxFailedAttempts:  s.cfg.MaxFailedAttempts,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		sub.CurrentPeriodEnd = sub.TrialEndsAt
		sub.NextBillingDate = truncateToDate(sub.TrialEndsAt)

		if err := s.store.Create(ctx, sub); err != nil {
			return nil, errors.Join(ErrPersistence, err)
		}
		metrics.SubscriptionTransitions.WithLabelValues(string(StatusNone), string(status)).Inc()
		log.InfoContext(ctx, "subscription record created", logger.SubscriptionID(sub.ID), logger.Status(string(status)))
	} else {
		log.InfoContext(ctx, "resuming pending subscription", logger.SubscriptionID(sub.ID))
	}

	customerCode, err := s.provider.CreateCustomer(ctx, req.Email)
	if err != nil {
		log.ErrorContext(ctx, "failed to create provider customer", logger.Error(err))
		return nil, errors.Join(ErrProviderError, err)
	}
	if customerCode == "" {
		return nil, ErrMissingCustomerCode
	}

	link, err := s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		Email:          req.Email,
		CustomerCode:   customerCode,
		BusinessID:     req.BusinessID,
		UserID:         req.UserID,
		SubscriptionID: sub.ID,
		IsTrial:        sub.TrialActiveAt(now),
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to initialize checkout", logger.Error(err))
		return nil, errors.Join(ErrProviderError, err)
	}
	if link == nil || link.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	updated, err := s.store.Mutate(ctx, sub.ID, func(r *Subscription) error {
		r.CustomerCode = customerCode
		r.PaystackReference = link.Reference
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}

	return &Initialization{
		AuthorizationURL: link.URL,
		Reference:        link.Reference,
		Subscription:     updated,
		DaysLeft:         max(updated.DaysLeftAt(now), 0),
	}, nil
}

// resumableRecord returns the record a repeated initialize call should reuse.
// Trialing, past-due and expired records are resumed with their original trial
// window; an active record rejects the call. After a cancellation a new record
// is needed and hadTrial reports that the business already used its trial.
func (s *service) resumableRecord(ctx context.Context, businessID string) (sub *Subscription, hadTrial bool, err error) {
	latest, err := s.store.Latest(ctx, businessID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Join(ErrPersistence, err)
	}

	switch latest.Status {
	case StatusTrialing, StatusPastDue, StatusExpired:
		return latest, true, nil
	case StatusActive:
		return nil, true, ErrSubscriptionAlreadyExists
	default:
		return nil, true, nil
	}
}

// VerifyPayment confirms a checkout reference with the provider and activates
// the matching record. A missing record is logged, not reported as a failure.
func (s *service) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrValidation)
	}

	log := s.logger.With(logger.Reference(reference))

	result, err := s.provider.VerifyCheckout(ctx, reference)
	if err != nil {
		log.ErrorContext(ctx, "failed to verify checkout", logger.Error(err))
		return nil, errors.Join(ErrProviderError, err)
	}
	if !result.Successful {
		log.InfoContext(ctx, "checkout not successful", logger.Reason(result.Message))
		return &Verification{Successful: false, Message: MessageVerificationFailed}, nil
	}

	sub, err := s.store.FindByReference(ctx, reference)
	if errors.Is(err, ErrSubscriptionNotFound) {
		log.WarnContext(ctx, "verified checkout has no matching subscription")
		return &Verification{Successful: true, Message: MessageActivated}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}

	now := s.clock()
	var from SubscriptionStatus
	updated, err := s.store.Mutate(ctx, sub.ID, func(r *Subscription) error {
		if r.Status.IsTerminal() {
			return ErrNoChange
		}
		from = r.Status
		r.Status = StatusActive
		r.Amount = result.Amount
		if result.CustomerCode != "" {
			r.CustomerCode = result.CustomerCode
		}
		if result.PlanCode != "" {
			r.PlanCode = result.PlanCode
		}
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}
	if from != "" {
		s.recordTransition(ctx, updated, from)
	}

	return &Verification{Successful: true, Message: MessageActivated, Subscription: updated}, nil
}

// CancelSubscription disables the remote subscription when one exists and marks the record cancelled.
func (s *service) CancelSubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	if subscriptionID == uuid.Nil {
		return fmt.Errorf("%w: subscription id is required", ErrValidation)
	}

	sub, err := s.store.Get(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return err
		}
		return errors.Join(ErrPersistence, err)
	}

	log := s.logger.With(logger.SubscriptionID(sub.ID), logger.BusinessID(sub.BusinessID))

	if sub.Status.IsTerminal() {
		log.InfoContext(ctx, "subscription already cancelled")
		return nil
	}

	if sub.PaystackSubscriptionCode != "" {
		if err := s.provider.DisableSubscription(ctx, sub.PaystackSubscriptionCode, sub.EmailToken); err != nil {
			log.ErrorContext(ctx, "failed to disable provider subscription", logger.Error(err))
			return errors.Join(ErrProviderError, err)
		}
	}

	now := s.clock()
	var from SubscriptionStatus
	updated, err := s.store.Mutate(ctx, sub.ID, func(r *Subscription) error {
		if r.Status.IsTerminal() {
			return ErrNoChange
		}
		from = r.Status
		r.Status = StatusCancelled
		r.CancelledAt = &now
		r.CancellationReason = ReasonCancelledByUser
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return errors.Join(ErrPersistence, err)
	}
	if from != "" {
		s.recordTransition(ctx, updated, from)
	}

	return nil
}

func (s *service) recordTransition(ctx context.Context, sub *Subscription, from SubscriptionStatus) {
	metrics.SubscriptionTransitions.WithLabelValues(string(from), string(sub.Status)).Inc()
	s.logger.InfoContext(ctx, "subscription status changed",
		logger.SubscriptionID(sub.ID),
		logger.BusinessID(sub.BusinessID),
		logger.Transition(string(from), string(sub.Status)),
	)
}
