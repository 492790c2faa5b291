package registration

import (
	"context"
	"errors"

	"github.com/propmarket/portal/pkg/types"

	"gorm.io/datatypes"
)

// Terminal and retryable outcomes of payment verification. Handlers map
// these onto HTTP statuses and error codes; see the error taxonomy in
// pkg/response.
var (
	// ErrInvalidRequest: the submission itself is unusable (missing
	// fields, role without a paid plan). Terminal; the client must fix
	// the request.
	ErrInvalidRequest = errors.New("invalid registration request")
	// ErrSessionExpired: the staged record is gone (already consumed or
	// purged). The client must restart registration from the beginning.
	ErrSessionExpired = errors.New("registration session expired")
	// ErrNotYetPaid: no successful payment recorded yet. Retryable; the
	// payment may complete seconds later.
	ErrNotYetPaid = errors.New("payment not completed yet")
	// ErrPaymentFailed: every payment attempt failed. The staged record is
	// kept so a retry does not re-upload documents.
	ErrPaymentFailed = errors.New("payment failed")
)

type StageRequest struct {
	Role      types.Role     `json:"role"`
	Name      string         `json:"name" binding:"required"`
	Email     string         `json:"email" binding:"required"`
	Phone     string         `json:"phone"`
	Profile   datatypes.JSON `json:"profile"`
	Documents datatypes.JSON `json:"documents"`
}

type StageResult struct {
	CorrelationID string  `json:"correlation_id"`
	OrderID       string  `json:"order_id"`
	SessionHandle string  `json:"gateway_session_handle"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

type VerifyResult struct {
	UserID string `json:"user_id"`
	// Existing is true when the staged email already had an account; no
	// second account is created and the existing id is returned.
	Existing     bool                   `json:"existing"`
	AccessToken  string                 `json:"access_token"`
	EmailSent    bool                   `json:"email_sent"`
	Subscription types.SubscriptionInfo `json:"subscription"`
}

// Manager runs the registration-with-payment flow: stage pending data,
// create the payment order, verify payment, create the user exactly once.
type Manager interface {
	Stage(ctx context.Context, req *StageRequest) (*StageResult, error)
	Verify(ctx context.Context, correlationID, orderID string) (*VerifyResult, error)
}
