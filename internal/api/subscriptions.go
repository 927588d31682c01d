package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tabledash/billing/pkg/subscription"
)

type initializeResponse struct {
	Success          bool                `json:"success"`
	AuthorizationURL string              `json:"authorization_url"`
	Reference        string              `json:"reference"`
	Subscription     subscriptionSummary `json:"subscription"`
}

type subscriptionSummary struct {
	ID          uuid.UUID                       `json:"id"`
	Status      subscription.SubscriptionStatus `json:"status"`
	TrialEndsAt time.Time                       `json:"trial_ends_at"`
	DaysLeft    int                             `json:"days_left"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type cancelRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) initializeSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscription.InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", subscription.ErrValidation), "")
		return
	}

	init, err := s.svc.InitializeSubscription(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err, "Failed to initialize subscription")
		return
	}

	writeJSON(w, http.StatusOK, initializeResponse{
		Success:          true,
		AuthorizationURL: init.AuthorizationURL,
		Reference:        init.Reference,
		Subscription: subscriptionSummary{
			ID:          init.Subscription.ID,
			Status:      init.Subscription.Status,
			TrialEndsAt: init.Subscription.TrialEndsAt,
			DaysLeft:    init.DaysLeft,
		},
	})
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.VerifyPayment(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		s.writeError(w, r, err, subscription.MessageVerificationFailed)
		return
	}

	status := "failed"
	if res.Successful {
		status = string(subscription.StatusActive)
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: res.Successful, Status: status, Message: res.Message})
}

func (s *Server) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.ResolveStatus(r.Context(), chi.URLParam(r, "businessId"))
	if err != nil {
		s.writeError(w, r, err, "Failed to check subscription status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", subscription.ErrValidation), "")
		return
	}
	id, err := uuid.Parse(req.SubscriptionID)
	if err != nil {
		s.writeError(w, r, errors.Join(subscription.ErrValidation, fmt.Errorf("invalid subscriptionId %q", req.SubscriptionID)), "")
		return
	}

	if err := s.svc.CancelSubscription(r.Context(), id); err != nil {
		s.writeError(w, r, err, "Failed to cancel subscription")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: subscription.MessageCancelled})
}
