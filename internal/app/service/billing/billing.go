// Package billing holds the pure date arithmetic behind subscription
// validity. Everything here is side-effect free; persistence and gateway
// concerns live in the registration/renewal services.
package billing

import (
	"time"

	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/pkg/types"
)

// Period is one billing period: one calendar month.
const Period = 1 // months

// ComputeExpiry advances paidAt by exactly one calendar month. Month
// overflow follows Go's AddDate normalization: Jan 31 rolls into early
// March rather than clamping to Feb 28/29. That rule is deliberate and
// relied on by the tests; do not swap in a clamping implementation.
func ComputeExpiry(paidAt time.Time) time.Time {
	return paidAt.AddDate(0, Period, 0)
}

// ComputeRenewalBase picks the date a renewal period starts from. An early
// renewal (existing expiry still in the future) extends from the current
// expiry so the user keeps the days already paid for; an expired or
// first-time subscription starts from now.
func ComputeRenewalBase(existingExpiry *time.Time, now time.Time) time.Time {
	if existingExpiry != nil && existingExpiry.After(now) {
		return *existingExpiry
	}
	return now
}

// ExpiryOf returns the subscription's expiry, backfilling it from the paid
// timestamp for legacy rows that never had one written. Nil when the record
// carries no timestamp evidence at all.
func ExpiryOf(sub *models.Subscription) *time.Time {
	if sub == nil {
		return nil
	}
	if sub.ExpiresAt != nil {
		return sub.ExpiresAt
	}
	if paidAt := sub.EffectivePaidAt(); paidAt != nil {
		exp := ComputeExpiry(*paidAt)
		return &exp
	}
	return nil
}

// IsValid is the access decision. It fails closed: a missing record, an
// inactive flag, or a record with no payment timestamps all deny access.
func IsValid(sub *models.Subscription, now time.Time) bool {
	if sub == nil || !sub.Active {
		return false
	}
	exp := ExpiryOf(sub)
	if exp == nil {
		return false
	}
	return !now.After(*exp)
}

// DaysRemaining is ceil((expiresAt - now) / 24h). Zero or negative means
// the window has closed.
func DaysRemaining(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Info builds the client-facing subscription view with the expiry
// backfilled, so callers never see a blank expiry next to a paid-at.
func Info(sub *models.Subscription, now time.Time) types.SubscriptionInfo {
	info := types.SubscriptionInfo{}
	if sub == nil {
		return info
	}
	info.Active = sub.Active
	info.PaidAt = sub.EffectivePaidAt()
	info.ExpiresAt = ExpiryOf(sub)
	if info.ExpiresAt != nil {
		info.DaysRemaining = DaysRemaining(*info.ExpiresAt, now)
	}
	return info
}
