package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/metrics"
)

// Status is the effective access state of a business at query time.
type Status struct {
	HasSubscription bool
	Status          SubscriptionStatus
	IsTrial         bool
	DaysLeft        int
	IsInGracePeriod bool
	HasAccess       bool
	CheckedAt       time.Time
	Subscription    *Subscription
}

// Locked reports whether the dashboard must show the renew-only prompt.
func (s *Status) Locked() bool {
	return s == nil || !s.HasAccess
}

// MarshalJSON flattens the record fields next to the computed fields,
// so the status endpoint returns one object.
func (s Status) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if s.Subscription != nil {
		raw, err := json.Marshal(s.Subscription)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}
	out["hasSubscription"] = s.HasSubscription
	out["status"] = s.Status
	out["isTrial"] = s.IsTrial
	out["daysLeft"] = s.DaysLeft
	out["isInGracePeriod"] = s.IsInGracePeriod
	out["hasAccess"] = s.HasAccess
	return json.Marshal(out)
}

// ResolveStatus computes the access state from the latest record of a business.
// A trial found past its end is expired in the store before reporting.
func (s *service) ResolveStatus(ctx context.Context, businessID string) (*Status, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, fmt.Errorf("%w: business id is required", ErrValidation)
	}

	now := s.clock()

	sub, err := s.store.Latest(ctx, businessID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return &Status{Status: StatusNone, CheckedAt: now}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}

	if sub.Status == StatusTrialing && sub.DaysLeftAt(now) <= 0 {
		sub, err = s.expireTrial(ctx, sub, now)
		if err != nil {
			return nil, err
		}
	}

	return describe(sub, now), nil
}

func describe(sub *Subscription, now time.Time) *Status {
	st := &Status{
		HasSubscription: true,
		Status:          sub.Status,
		CheckedAt:       now,
		Subscription:    sub,
		HasAccess:       sub.HasAccessAt(now),
	}

	switch sub.Status {
	case StatusTrialing:
		st.DaysLeft = max(sub.DaysLeftAt(now), 0)
		st.IsTrial = st.DaysLeft > 0
	case StatusPastDue:
		st.IsInGracePeriod = sub.InGracePeriodAt(now)
	}

	return st
}

// expireTrial returns the record as it stands after the conditional expiry.
// When another writer moved the row first, the fresh row is returned instead.
func (s *service) expireTrial(ctx context.Context, sub *Subscription, now time.Time) (*Subscription, error) {
	changed, err := s.store.ExpireTrial(ctx, sub.ID, now)
	if err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}
	if !changed {
		fresh, err := s.store.Get(ctx, sub.ID)
		if err != nil {
			return nil, errors.Join(ErrPersistence, err)
		}
		return fresh, nil
	}

	metrics.SubscriptionTransitions.WithLabelValues(string(StatusTrialing), string(StatusExpired)).Inc()
	s.logger.InfoContext(ctx, "trial expired",
		logger.SubscriptionID(sub.ID),
		logger.BusinessID(sub.BusinessID),
	)

	expired := sub.Clone()
	expired.Status = StatusExpired
	expired.UpdatedAt = now
	return expired, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
