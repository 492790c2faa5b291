package types

import "time"

type LedgerStatus string

const (
	LedgerStatusActive  LedgerStatus = "active"
	LedgerStatusExpired LedgerStatus = "expired"
)

// SubscriptionInfo is the client-facing view of a subscription returned by
// renewal endpoints and the guard's rejection payload.
type SubscriptionInfo struct {
	Active        bool       `json:"active"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DaysRemaining int        `json:"days_remaining,omitempty"`
}
