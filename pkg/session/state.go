package session

import (
	"time"

	"github.com/tabledash/billing/pkg/subscription"
)

// LockState is the dashboard access state pushed to the UI after each check.
type LockState struct {
	BusinessID      string                          `json:"businessId"`
	Locked          bool                            `json:"locked"`
	Status          subscription.SubscriptionStatus `json:"status"`
	IsTrial         bool                            `json:"isTrial"`
	DaysLeft        int                             `json:"daysLeft"`
	IsInGracePeriod bool                            `json:"isInGracePeriod"`
	CheckedAt       time.Time                       `json:"checkedAt"`
}

// StateFromStatus converts a resolved status into a lock state.
func StateFromStatus(businessID string, st *subscription.Status) LockState {
	if st == nil {
		return LockState{BusinessID: businessID, Locked: true, Status: subscription.StatusNone}
	}
	return LockState{
		BusinessID:      businessID,
		Locked:          st.Locked(),
		Status:          st.Status,
		IsTrial:         st.IsTrial,
		DaysLeft:        st.DaysLeft,
		IsInGracePeriod: st.IsInGracePeriod,
		CheckedAt:       st.CheckedAt,
	}
}
