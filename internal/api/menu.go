package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/qrcode"
)

const (
	minQRSize = 64
	maxQRSize = 1024
)

// menuQR serves the table QR code of a business. Generation is a paid feature:
// a business without access gets 402.
func (s *Server) menuQR(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessId")

	st, err := s.svc.ResolveStatus(r.Context(), businessID)
	if err != nil {
		s.writeError(w, r, err, "Failed to check subscription status")
		return
	}
	if !st.HasAccess {
		writeJSON(w, http.StatusPaymentRequired, errorBody{Success: false, Error: "An active subscription is required to generate menu QR codes"})
		return
	}

	size := qrcode.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			size = min(max(n, minQRSize), maxQRSize)
		}
	}

	png, err := qrcode.MenuQR(s.menuBaseURL, businessID, size)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render menu QR", logger.BusinessID(businessID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Success: false, Error: "Failed to generate QR code"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
