package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/paystack"
	"github.com/tabledash/billing/pkg/session"
	"github.com/tabledash/billing/pkg/subscription"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, subscription.ErrValidation),
		errors.Is(err, subscription.ErrInvalidWebhookPayload),
		errors.Is(err, session.ErrBusinessRequired):
		return http.StatusBadRequest
	case errors.Is(err, subscription.ErrWebhookVerificationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, subscription.ErrSubscriptionNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, subscription.ErrSubscriptionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, session.ErrControllerStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing message. Provider errors surface the
// provider's own message; other server errors stay generic.
func messageFor(err error, status int, fallback string) string {
	if errors.Is(err, subscription.ErrProviderError) {
		if msg, ok := paystack.ProviderMessage(err); ok {
			return msg
		}
		return fallback
	}
	if status >= http.StatusInternalServerError {
		return fallback
	}
	return err.Error()
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.Int("code", status),
		logger.Error(err),
	)
	writeJSON(w, status, errorBody{Success: false, Error: messageFor(err, status, fallback)})
}
