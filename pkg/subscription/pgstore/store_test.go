package pgstore_test

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/internal/db"
	"github.com/tabledash/billing/pkg/pg"
	"github.com/tabledash/billing/pkg/subscription"
	"github.com/tabledash/billing/pkg/subscription/pgstore"
)

// testPool connects to BILLING_TEST_PG_URL and applies migrations.
// Tests are skipped when the variable is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("BILLING_TEST_PG_URL")
	if url == "" {
		t.Skip("BILLING_TEST_PG_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     4,
		RetryAttempts:    1,
		MigrationsDir:    "migrations",
		MigrationsTable:  "billing_schema_migrations",
	}

	pool, err := pg.Connect(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, db.Migrations, nil))
	return pool
}

func newRecord(businessID string, created time.Time) *subscription.Subscription {
	trialEnds := created.Add(72 * time.Hour)
	return &subscription.Subscription{
		ID:                 uuid.New(),
		BusinessID:         businessID,
		UserID:             "user_1",
		Status:             subscription.StatusTrialing,
		PlanName:           subscription.PlanName,
		PlanType:           subscription.PlanType,
		Amount:             subscription.PlanAmount(),
		TrialEndsAt:        trialEnds,
		CurrentPeriodStart: created,
		CurrentPeriodEnd:   trialEnds,
		NextBillingDate:    time.Date(trialEnds.Year(), trialEnds.Month(), trialEnds.Day(), 0, 0, 0, 0, time.UTC),
		CustomerCode:       "CUS_" + businessID,
		MaxFailedAttempts:  3,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func TestStore(t *testing.T) {
	pool := testPool(t)
	store := pgstore.New(pool)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)

	t.Run("create writes record and mirror", func(t *testing.T) {
		biz := "biz_" + uuid.NewString()
		sub := newRecord(biz, created)
		require.NoError(t, store.Create(ctx, sub))

		got, err := store.Get(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrialing, got.Status)
		assert.True(t, sub.Amount.Equal(got.Amount))
		assert.True(t, sub.TrialEndsAt.Equal(got.TrialEndsAt))

		m, err := store.Mirror(ctx, biz)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrialing, m.SubscriptionStatus)
		assert.True(t, sub.CurrentPeriodEnd.Equal(m.CurrentPeriodEnd))

		require.ErrorIs(t, store.Create(ctx, sub), subscription.ErrSubscriptionAlreadyExists)
	})

	t.Run("latest and lookups prefer newest", func(t *testing.T) {
		biz := "biz_" + uuid.NewString()
		older := newRecord(biz, created.Add(-time.Hour))
		newer := newRecord(biz, created)
		require.NoError(t, store.Create(ctx, older))
		require.NoError(t, store.Create(ctx, newer))

		latest, err := store.Latest(ctx, biz)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, latest.ID)

		found, err := store.FindByProviderCodes(ctx, "CUS_"+biz, "")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, found.ID)

		_, err = store.FindByProviderCodes(ctx, "", "")
		require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

		_, err = store.Latest(ctx, "biz_missing_"+uuid.NewString())
		require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("equal created_at falls back to id order", func(t *testing.T) {
		biz := "biz_" + uuid.NewString()
		a := newRecord(biz, created)
		b := newRecord(biz, created)
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, b))

		want := a.ID
		if bytes.Compare(b.ID[:], a.ID[:]) > 0 {
			want = b.ID
		}

		latest, err := store.Latest(ctx, biz)
		require.NoError(t, err)
		assert.Equal(t, want, latest.ID)

		found, err := store.FindByProviderCodes(ctx, "CUS_"+biz, "")
		require.NoError(t, err)
		assert.Equal(t, want, found.ID)
	})

	t.Run("mutate updates record and mirror", func(t *testing.T) {
		biz := "biz_" + uuid.NewString()
		sub := newRecord(biz, created)
		require.NoError(t, store.Create(ctx, sub))

		periodEnd := created.Add(30 * 24 * time.Hour)
		updated, err := store.Mutate(ctx, sub.ID, func(r *subscription.Subscription) error {
			r.Status = subscription.StatusActive
			r.PaystackSubscriptionCode = "SUB_" + biz
			r.CurrentPeriodEnd = periodEnd
			r.TrialEndsAt = time.Time{}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, updated.Status)
		assert.True(t, sub.TrialEndsAt.Equal(updated.TrialEndsAt))

		found, err := store.FindByProviderCodes(ctx, "", "SUB_"+biz)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, found.ID)

		m, err := store.Mirror(ctx, biz)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, m.SubscriptionStatus)
		assert.True(t, periodEnd.Equal(m.CurrentPeriodEnd))

		same, err := store.Mutate(ctx, sub.ID, func(r *subscription.Subscription) error {
			r.Status = subscription.StatusCancelled
			return subscription.ErrNoChange
		})
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, same.Status)
	})

	t.Run("expire trial is conditional", func(t *testing.T) {
		biz := "biz_" + uuid.NewString()
		sub := newRecord(biz, created.Add(-72*time.Hour))
		require.NoError(t, store.Create(ctx, sub))

		changed, err := store.ExpireTrial(ctx, sub.ID, sub.TrialEndsAt.Add(-time.Second))
		require.NoError(t, err)
		assert.False(t, changed)

		changed, err = store.ExpireTrial(ctx, sub.ID, sub.TrialEndsAt)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.ExpireTrial(ctx, sub.ID, sub.TrialEndsAt)
		require.NoError(t, err)
		assert.False(t, changed)

		m, err := store.Mirror(ctx, biz)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusExpired, m.SubscriptionStatus)
	})
}
