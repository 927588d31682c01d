package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabledash/billing/internal/api"
)

func TestProbes(t *testing.T) {
	t.Parallel()

	h := api.New(&mockService{}, api.WithReadinessChecks(
		func(context.Context) error { return nil },
		func(context.Context) error { return errors.New("redis down") },
	)).Router()

	live := serve(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "ALIVE", live.Body.String())

	ready := serve(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
	assert.Equal(t, "NOT_READY", ready.Body.String())

	metrics := serve(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, metrics.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()

	h := api.New(&mockService{}).Router()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req_123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req_123", rec.Header().Get("X-Request-ID"))
}

func TestNewPanicsWithoutService(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { api.New(nil) })
}
