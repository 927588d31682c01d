package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/internal/api"
	"github.com/tabledash/billing/pkg/paystack"
	"github.com/tabledash/billing/pkg/subscription"
)

func TestWebhook(t *testing.T) {
	t.Parallel()

	// Key order and spacing must reach the service untouched.
	const payload = `{ "event":"charge.success",  "data":{"status":"success"} }`

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "processed", wantCode: http.StatusOK, wantBody: "ok"},
		{name: "bad signature", err: errors.Join(subscription.ErrWebhookVerificationFailed, paystack.ErrInvalidSignature), wantCode: http.StatusUnauthorized, wantBody: "error"},
		{name: "store failure forces redelivery", err: subscription.ErrPersistence, wantCode: http.StatusInternalServerError, wantBody: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &mockService{}
			svc.On("HandleWebhook", mock.Anything, []byte(payload), "sig_hex").Return(tt.err)

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
			req.Header.Set(paystack.SignatureHeader, "sig_hex")
			rec := httptest.NewRecorder()
			api.New(svc).Router().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}

	t.Run("oversized body is rejected before processing", func(t *testing.T) {
		t.Parallel()
		svc := &mockService{}
		h := api.New(svc, api.WithWebhookBodyLimit(16)).Router()

		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWebhook_SignedUnreadablePayload(t *testing.T) {
	t.Parallel()

	const secret = "sk_test_webhook"
	client, err := paystack.New(paystack.Config{SecretKey: secret, PlanCode: "PLN_pro"})
	require.NoError(t, err)
	provider, err := subscription.NewPaystackProvider(client)
	require.NoError(t, err)
	h := api.New(subscription.NewService(provider, subscription.NewMemoryStore())).Router()

	for _, payload := range []string{`{"event":"charge.success","data":[1]}`, `{"data":{}}`, `{"event":`} {
		t.Run(payload, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
			req.Header.Set(paystack.SignatureHeader, paystack.Sign(secret, []byte(payload)))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "ok", rec.Body.String())
		})
	}

	t.Run("unsigned stays unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"data":{}}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
