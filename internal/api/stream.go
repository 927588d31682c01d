package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/session"
)

type streamSignals struct {
	SessionID string            `json:"sessionId"`
	Billing   session.LockState `json:"billing"`
}

// streamLockState opens a dashboard session for the business and pushes every
// lock state it resolves as Datastar signals plus the overlay element. The
// session ends when the client disconnects or logs out.
func (s *Server) streamLockState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Login(chi.URLParam(r, "businessId"))
	if err != nil {
		s.writeError(w, r, err, "Failed to open session")
		return
	}
	defer func() {
		if err := s.sessions.Logout(sess.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			s.logger.WarnContext(r.Context(), "failed to close session", logger.SessionID(sess.ID), logger.Error(err))
		}
	}()

	ctx := r.Context()
	sub := sess.Subscribe(ctx)
	defer sub.Close()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case msg, ok := <-sub.Receive():
			if !ok {
				return
			}
			if err := pushLockState(sse, sess.ID, msg.Data); err != nil {
				s.logger.DebugContext(ctx, "lock state stream closed", logger.SessionID(sess.ID), logger.Error(err))
				return
			}
		}
	}
}

func pushLockState(sse *datastar.ServerSentEventGenerator, sessionID string, st session.LockState) error {
	signals, err := json.Marshal(streamSignals{SessionID: sessionID, Billing: st})
	if err != nil {
		return err
	}
	if err := sse.PatchSignals(signals); err != nil {
		return err
	}
	return sse.PatchElementTempl(renewOverlay(st))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(chi.URLParam(r, "sessionId")); err != nil {
		s.writeError(w, r, err, "Failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
