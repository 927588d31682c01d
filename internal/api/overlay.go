package api

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/tabledash/billing/pkg/session"
	"github.com/tabledash/billing/pkg/subscription"
)

const (
	overlayID = "billing-overlay"
	renewPath = "/billing/renew"
)

// renewOverlay blocks the dashboard with a renew-only prompt while the state is
// locked and renders an empty placeholder otherwise, so one morph both shows
// and clears it.
func renewOverlay(st session.LockState) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !st.Locked {
			_, err := fmt.Fprintf(w, `<div id="%s"></div>`, overlayID)
			return err
		}
		_, err := fmt.Fprintf(w,
			`<div id="%s" class="billing-overlay" role="dialog" aria-modal="true">`+
				`<div class="billing-overlay__panel">`+
				`<h2>%s</h2>`+
				`<p>%s</p>`+
				`<a class="billing-overlay__renew" href="%s">Renew subscription</a>`+
				`</div></div>`,
			overlayID,
			templ.EscapeString(lockTitle(st.Status)),
			templ.EscapeString(lockMessage(st.Status)),
			templ.EscapeString(renewPath),
		)
		return err
	})
}

func lockTitle(status subscription.SubscriptionStatus) string {
	switch status {
	case subscription.StatusExpired:
		return "Your free trial has ended"
	case subscription.StatusPastDue:
		return "Payment overdue"
	case subscription.StatusCancelled:
		return "Subscription cancelled"
	default:
		return "Subscription required"
	}
}

func lockMessage(status subscription.SubscriptionStatus) string {
	switch status {
	case subscription.StatusExpired:
		return "Subscribe to the Professional plan to keep managing your menu and orders."
	case subscription.StatusPastDue:
		return "We could not charge your card and the grace period is over. Update your payment to continue."
	case subscription.StatusCancelled:
		return "Renew the Professional plan to unlock your dashboard again."
	default:
		return "Start the Professional plan to use the dashboard."
	}
}
