package api_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/tabledash/billing/pkg/subscription"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) InitializeSubscription(ctx context.Context, req subscription.InitializeRequest) (*subscription.Initialization, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*subscription.Initialization), args.Error(1)
}

func (m *mockService) VerifyPayment(ctx context.Context, reference string) (*subscription.Verification, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(*subscription.Verification), args.Error(1)
}

func (m *mockService) CancelSubscription(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockService) ResolveStatus(ctx context.Context, businessID string) (*subscription.Status, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(*subscription.Status), args.Error(1)
}

func (m *mockService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}
