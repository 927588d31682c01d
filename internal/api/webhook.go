package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/tabledash/billing/pkg/clientip"
	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/paystack"
)

// webhook passes the raw request bytes to the service; the signature is
// computed over exactly what Paystack sent. Any non-2xx makes Paystack redeliver.
func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookIPs != nil {
		if ip := clientip.FromContext(r.Context()); !s.webhookIPs.Contains(ip) {
			s.logger.WarnContext(r.Context(), "webhook from unexpected address rejected", slog.String("ip", ip))
			writeText(w, http.StatusForbidden, "error")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.bodyLimit))
	if err != nil {
		s.logger.WarnContext(r.Context(), "failed to read webhook body", logger.Error(err))
		writeText(w, http.StatusBadRequest, "error")
		return
	}

	if err := s.svc.HandleWebhook(r.Context(), body, r.Header.Get(paystack.SignatureHeader)); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
		}
		writeText(w, status, "error")
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
