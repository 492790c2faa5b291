package renewal

import (
	"context"
	"errors"

	"github.com/propmarket/portal/pkg/types"
)

var (
	// ErrUserNotFound: no account matches the supplied id or email/role pair.
	ErrUserNotFound = errors.New("user not found")
	// ErrIdentityMismatch: the supplied email does not belong to the supplied
	// user id, or the order was created for a different user. The flow is
	// deliberately unauthenticated, so this check is the only identity
	// binding it has.
	ErrIdentityMismatch = errors.New("identity mismatch")
	// ErrNotYetPaid: no successful payment on the order yet. Retryable.
	ErrNotYetPaid = errors.New("payment not completed yet")
	// ErrPaymentFailed: every attempt on the order failed.
	ErrPaymentFailed = errors.New("payment failed")
)

// LookupResult is the redacted profile shown before money changes hands.
type LookupResult struct {
	UserID       string                 `json:"user_id"`
	Name         string                 `json:"name"`
	Role         types.Role             `json:"role"`
	Subscription types.SubscriptionInfo `json:"subscription"`
}

type OrderResult struct {
	OrderID       string  `json:"order_id"`
	SessionHandle string  `json:"gateway_session_handle"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

type VerifyResult struct {
	UserID string `json:"user_id"`
	// AlreadyProcessed is true when the stored subscription already carries
	// this order id: the extension was applied by an earlier call and is
	// not applied again.
	AlreadyProcessed bool                   `json:"already_processed"`
	EmailSent        bool                   `json:"email_sent"`
	Subscription     types.SubscriptionInfo `json:"subscription"`
}

// Manager runs the renewal flow. One implementation serves every payable
// role; the role only selects the billing plan.
type Manager interface {
	Lookup(ctx context.Context, email string, role types.Role) (*LookupResult, error)
	CreateOrder(ctx context.Context, userID, email string) (*OrderResult, error)
	VerifyPayment(ctx context.Context, userID, orderID string) (*VerifyResult, error)
}
