package subscription

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CompanyMirror is the denormalized copy of the subscription state kept on the company row.
type CompanyMirror struct {
	SubscriptionStatus SubscriptionStatus
	CurrentPeriodEnd   time.Time
}

// MemoryStore is an in-process Store. One mutex covers records and mirrors,
// which gives the same atomicity as the database transaction.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*Subscription
	companies map[string]CompanyMirror
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[uuid.UUID]*Subscription),
		companies: make(map[string]CompanyMirror),
	}
}

func (m *MemoryStore) Create(_ context.Context, sub *Subscription) error {
	if sub == nil || sub.ID == uuid.Nil || sub.BusinessID == "" {
		return ErrValidation
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[sub.ID]; ok {
		return ErrSubscriptionAlreadyExists
	}
	m.records[sub.ID] = sub.Clone()
	m.mirror(sub)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.records[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (m *MemoryStore) Latest(_ context.Context, businessID string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *Subscription
	for _, sub := range m.records {
		if sub.BusinessID != businessID {
			continue
		}
		if latest == nil || newer(sub, latest) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, ErrSubscriptionNotFound
	}
	return latest.Clone(), nil
}

func (m *MemoryStore) FindByReference(_ context.Context, reference string) (*Subscription, error) {
	if reference == "" {
		return nil, ErrSubscriptionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var found *Subscription
	for _, sub := range m.records {
		if sub.PaystackReference == reference && (found == nil || newer(sub, found)) {
			found = sub
		}
	}
	if found == nil {
		return nil, ErrSubscriptionNotFound
	}
	return found.Clone(), nil
}

// FindByProviderCodes prefers the most recent match, as the SQL store does.
func (m *MemoryStore) FindByProviderCodes(_ context.Context, customerCode, subscriptionCode string) (*Subscription, error) {
	if customerCode == "" && subscriptionCode == "" {
		return nil, ErrSubscriptionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var found *Subscription
	for _, sub := range m.records {
		match := (customerCode != "" && sub.CustomerCode == customerCode) ||
			(subscriptionCode != "" && sub.PaystackSubscriptionCode == subscriptionCode)
		if !match {
			continue
		}
		if found == nil || newer(sub, found) {
			found = sub
		}
	}
	if found == nil {
		return nil, ErrSubscriptionNotFound
	}
	return found.Clone(), nil
}

func (m *MemoryStore) Mutate(_ context.Context, id uuid.UUID, fn MutateFunc) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrNoChange) {
			return current.Clone(), nil
		}
		return nil, err
	}
	next.ID = current.ID
	next.BusinessID = current.BusinessID
	next.TrialEndsAt = current.TrialEndsAt
	next.CreatedAt = current.CreatedAt

	m.records[id] = next
	m.mirror(next)
	return next.Clone(), nil
}

func (m *MemoryStore) ExpireTrial(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.records[id]
	if !ok || sub.Status != StatusTrialing || sub.TrialEndsAt.After(now) {
		return false, nil
	}
	sub.Status = StatusExpired
	sub.UpdatedAt = now
	m.mirror(sub)
	return true, nil
}

// Mirror returns the company mirror of a business.
func (m *MemoryStore) Mirror(businessID string) (CompanyMirror, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.companies[businessID]
	return c, ok
}

func (m *MemoryStore) mirror(sub *Subscription) {
	m.companies[sub.BusinessID] = CompanyMirror{
		SubscriptionStatus: sub.Status,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
	}
}

// newer orders records by created_at, then by id, matching the SQL store's
// ORDER BY created_at DESC, id DESC.
func newer(a, b *Subscription) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}
