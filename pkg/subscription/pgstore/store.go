// Package pgstore is the PostgreSQL implementation of subscription.Store.
// Every write updates the companies mirror inside the same transaction.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/tabledash/billing/pkg/pg"
	"github.com/tabledash/billing/pkg/subscription"
)

// DB is the part of *pgxpool.Pool the store uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists subscriptions in the subscriptions table.
type Store struct {
	db DB
}

var _ subscription.Store = (*Store)(nil)

// New creates a Store on db.
func New(db DB) *Store {
	if db == nil {
		panic("pgstore: db is required")
	}
	return &Store{db: db}
}

// amount is read as text so decimal parsing never goes through a float.
const selectColumns = `SELECT id, business_id, user_id, status, plan_name, plan_type, plan_code, amount::text,
	trial_ends_at, current_period_start, current_period_end, next_billing_date,
	customer_code, paystack_reference, paystack_subscription_code, email_token,
	failed_attempts, max_failed_attempts, last_failed_at, grace_period_ends, cancelled_at,
	cancellation_reason, last_event_key, created_at, updated_at
FROM subscriptions`

const insertSubscription = `INSERT INTO subscriptions (
	id, business_id, user_id, status, plan_name, plan_type, plan_code, amount,
	trial_ends_at, current_period_start, current_period_end, next_billing_date,
	customer_code, paystack_reference, paystack_subscription_code, email_token,
	failed_attempts, max_failed_attempts, last_failed_at, grace_period_ends, cancelled_at,
	cancellation_reason, last_event_key, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8::numeric,
	$9, $10, $11, $12,
	$13, $14, $15, $16,
	$17, $18, $19, $20, $21,
	$22, $23, $24, $25
)`

// updateSubscription leaves the immutable columns (business_id, trial_ends_at, created_at) alone.
const updateSubscription = `UPDATE subscriptions SET
	user_id = $2, status = $3, plan_name = $4, plan_type = $5, plan_code = $6, amount = $7::numeric,
	current_period_start = $8, current_period_end = $9, next_billing_date = $10,
	customer_code = $11, paystack_reference = $12, paystack_subscription_code = $13, email_token = $14,
	failed_attempts = $15, max_failed_attempts = $16, last_failed_at = $17, grace_period_ends = $18,
	cancelled_at = $19, cancellation_reason = $20, last_event_key = $21, updated_at = $22
WHERE id = $1`

const upsertMirror = `INSERT INTO companies (id, subscription_status, current_period_end)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
	subscription_status = EXCLUDED.subscription_status,
	current_period_end = EXCLUDED.current_period_end`

const expireTrial = `UPDATE subscriptions SET status = 'expired', updated_at = $2
WHERE id = $1 AND status = 'trialing' AND trial_ends_at <= $2
RETURNING business_id, current_period_end`

func (s *Store) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil || sub.ID == uuid.Nil || sub.BusinessID == "" {
		return subscription.ErrValidation
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertSubscription,
			sub.ID, sub.BusinessID, sub.UserID, string(sub.Status), sub.PlanName, sub.PlanType, sub.PlanCode, sub.Amount.String(),
			sub.TrialEndsAt, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.NextBillingDate,
			sub.CustomerCode, sub.PaystackReference, sub.PaystackSubscriptionCode, sub.EmailToken,
			sub.FailedAttempts, sub.MaxFailedAttempts, sub.LastFailedAt, sub.GracePeriodEnds, sub.CancelledAt,
			sub.CancellationReason, sub.LastEventKey, sub.CreatedAt, sub.UpdatedAt,
		)
		if pg.IsDuplicateKeyError(err) {
			return subscription.ErrSubscriptionAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		return writeMirror(ctx, tx, sub.BusinessID, sub.Status, sub.CurrentPeriodEnd)
	})
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	return scan(s.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
}

func (s *Store) Latest(ctx context.Context, businessID string) (*subscription.Subscription, error) {
	return scan(s.db.QueryRow(ctx,
		selectColumns+` WHERE business_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, businessID))
}

func (s *Store) FindByReference(ctx context.Context, reference string) (*subscription.Subscription, error) {
	if reference == "" {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return scan(s.db.QueryRow(ctx,
		selectColumns+` WHERE paystack_reference = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, reference))
}

func (s *Store) FindByProviderCodes(ctx context.Context, customerCode, subscriptionCode string) (*subscription.Subscription, error) {
	if customerCode == "" && subscriptionCode == "" {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return scan(s.db.QueryRow(ctx, selectColumns+`
WHERE ($1 <> '' AND customer_code = $1) OR ($2 <> '' AND paystack_subscription_code = $2)
ORDER BY created_at DESC, id DESC LIMIT 1`, customerCode, subscriptionCode))
}

func (s *Store) Mutate(ctx context.Context, id uuid.UUID, fn subscription.MutateFunc) (*subscription.Subscription, error) {
	var result *subscription.Subscription

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := scan(tx.QueryRow(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, subscription.ErrNoChange) {
				result = current
			}
			return err
		}
		next.ID = current.ID
		next.BusinessID = current.BusinessID
		next.TrialEndsAt = current.TrialEndsAt
		next.CreatedAt = current.CreatedAt

		if _, err := tx.Exec(ctx, updateSubscription,
			next.ID, next.UserID, string(next.Status), next.PlanName, next.PlanType, next.PlanCode, next.Amount.String(),
			next.CurrentPeriodStart, next.CurrentPeriodEnd, next.NextBillingDate,
			next.CustomerCode, next.PaystackReference, next.PaystackSubscriptionCode, next.EmailToken,
			next.FailedAttempts, next.MaxFailedAttempts, next.LastFailedAt, next.GracePeriodEnds,
			next.CancelledAt, next.CancellationReason, next.LastEventKey, next.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}
		if err := writeMirror(ctx, tx, next.BusinessID, next.Status, next.CurrentPeriodEnd); err != nil {
			return err
		}

		result = next
		return nil
	})
	if errors.Is(err, subscription.ErrNoChange) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ExpireTrial(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	changed := false

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var businessID string
		var periodEnd time.Time
		err := tx.QueryRow(ctx, expireTrial, id, now).Scan(&businessID, &periodEnd)
		if pg.IsNotFoundError(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("expire trial: %w", err)
		}
		changed = true
		return writeMirror(ctx, tx, businessID, subscription.StatusExpired, periodEnd)
	})

	return changed, err
}

// Mirror reads the company mirror of a business.
func (s *Store) Mirror(ctx context.Context, businessID string) (subscription.CompanyMirror, error) {
	var (
		status    *string
		periodEnd *time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT subscription_status, current_period_end FROM companies WHERE id = $1`, businessID,
	).Scan(&status, &periodEnd)
	if pg.IsNotFoundError(err) {
		return subscription.CompanyMirror{}, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return subscription.CompanyMirror{}, fmt.Errorf("read company mirror: %w", err)
	}

	var m subscription.CompanyMirror
	if status != nil {
		m.SubscriptionStatus = subscription.SubscriptionStatus(*status)
	}
	if periodEnd != nil {
		m.CurrentPeriodEnd = periodEnd.UTC()
	}
	return m, nil
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func writeMirror(ctx context.Context, tx pgx.Tx, businessID string, status subscription.SubscriptionStatus, periodEnd time.Time) error {
	if _, err := tx.Exec(ctx, upsertMirror, businessID, string(status), periodEnd); err != nil {
		return fmt.Errorf("update company mirror: %w", err)
	}
	return nil
}

func scan(row pgx.Row) (*subscription.Subscription, error) {
	var (
		sub    subscription.Subscription
		status string
		amount string
	)
	err := row.Scan(
		&sub.ID, &sub.BusinessID, &sub.UserID, &status, &sub.PlanName, &sub.PlanType, &sub.PlanCode, &amount,
		&sub.TrialEndsAt, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.NextBillingDate,
		&sub.CustomerCode, &sub.PaystackReference, &sub.PaystackSubscriptionCode, &sub.EmailToken,
		&sub.FailedAttempts, &sub.MaxFailedAttempts, &sub.LastFailedAt, &sub.GracePeriodEnds, &sub.CancelledAt,
		&sub.CancellationReason, &sub.LastEventKey, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}

	sub.Status = subscription.SubscriptionStatus(status)
	if sub.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	normalizeTimes(&sub)
	return &sub, nil
}

func normalizeTimes(sub *subscription.Subscription) {
	sub.TrialEndsAt = sub.TrialEndsAt.UTC()
	sub.CurrentPeriodStart = sub.CurrentPeriodStart.UTC()
	sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.UTC()
	sub.NextBillingDate = sub.NextBillingDate.UTC()
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	for _, t := range []**time.Time{&sub.LastFailedAt, &sub.GracePeriodEnds, &sub.CancelledAt} {
		if *t != nil {
			v := (**t).UTC()
			*t = &v
		}
	}
}
