package subscription

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the lifecycle state of a business subscription.
type SubscriptionStatus string

const (
	StatusTrialing  SubscriptionStatus = "trialing"
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"

	// StatusNone is reported when a business never started a subscription.
	// It is never persisted.
	StatusNone SubscriptionStatus = "none"
)

// IsTerminal reports whether no webhook or lifecycle call may move the record out of this status.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// Valid reports whether s is a persistable status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Subscription is the persisted subscription record of one business.
type Subscription struct {
	ID         uuid.UUID          `json:"id"`
	BusinessID string             `json:"business_id"`
	UserID     string             `json:"user_id"`
	Status     SubscriptionStatus `json:"status"`

	PlanName string          `json:"plan_name"`
	PlanType string          `json:"plan_type"`
	PlanCode string          `json:"plan_code,omitempty"`
	Amount   decimal.Decimal `json:"amount"`

	TrialEndsAt        time.Time `json:"trial_ends_at"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	NextBillingDate    time.Time `json:"next_billing_date"`

	CustomerCode             string `json:"customer_code,omitempty"`
	PaystackReference        string `json:"paystack_reference,omitempty"`
	PaystackSubscriptionCode string `json:"paystack_subscription_code,omitempty"`
	EmailToken               string `json:"-"`

	FailedAttempts     int        `json:"failed_attempts"`
	MaxFailedAttempts  int        `json:"max_failed_attempts"`
	LastFailedAt       *time.Time `json:"last_failed_at"`
	GracePeriodEnds    *time.Time `json:"grace_period_ends"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`

	LastEventKey string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DaysLeftAt returns the whole days remaining in the trial, rounded up.
// Returns zero or a negative number once the trial has ended.
func (s *Subscription) DaysLeftAt(now time.Time) int {
	return int(math.Ceil(s.TrialEndsAt.Sub(now).Hours() / 24))
}

// TrialActiveAt reports whether the record is trialing with time left.
func (s *Subscription) TrialActiveAt(now time.Time) bool {
	return s.Status == StatusTrialing && s.DaysLeftAt(now) > 0
}

// InGracePeriodAt reports whether a past-due record is still inside its grace window.
// The boundary instant itself is inside the window.
func (s *Subscription) InGracePeriodAt(now time.Time) bool {
	if s.Status != StatusPastDue || s.GracePeriodEnds == nil {
		return false
	}
	return !now.After(*s.GracePeriodEnds)
}

// HasAccessAt applies the dashboard access rule: trial with days left,
// active, or past due within the grace period.
func (s *Subscription) HasAccessAt(now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case StatusTrialing:
		return s.TrialActiveAt(now)
	case StatusActive:
		return true
	case StatusPastDue:
		return s.InGracePeriodAt(now)
	default:
		return false
	}
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.LastFailedAt = cloneTime(s.LastFailedAt)
	c.GracePeriodEnds = cloneTime(s.GracePeriodEnds)
	c.CancelledAt = cloneTime(s.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
