// Package session runs the dashboard access poller.
//
// A Controller owns one Session per logged-in dashboard. Login starts a
// goroutine that resolves the business's subscription status immediately and
// then on every interval (five minutes by default), publishing a LockState to
// the session's subscribers. A locked state means the UI shows only the renew
// prompt. Logout cancels the poller and waits for it; Shutdown does the same
// for every session.
//
//	ctrl := session.NewController(svc, session.WithLogger(log))
//	s, _ := ctrl.Login(businessID)
//	sub := s.Subscribe(ctx)
//	for msg := range sub.Receive() {
//		render(msg.Data)
//	}
//	_ = ctrl.Logout(s.ID)
package session
