package response

import "github.com/gin-gonic/gin"

// ErrorCode is the machine-readable failure discriminator. Clients branch on
// it (not only on HTTP status) to decide between retry, restart and support.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
	CodeNotYetPaid          ErrorCode = "NotYetPaid"
	CodeSessionExpired      ErrorCode = "SessionExpired"
	CodePaymentFailed       ErrorCode = "PaymentFailed"
	CodeGatewayUnavailable  ErrorCode = "GATEWAY_UNAVAILABLE"
	CodeIdentityMismatch    ErrorCode = "IDENTITY_MISMATCH"
	CodeSubscriptionExpired ErrorCode = "SUBSCRIPTION_EXPIRED"
)

// Retryable reports whether the client may re-poll the same request.
// NotYetPaid covers payments that complete seconds after the first verify;
// GatewayUnavailable covers timeouts where payment state is unknown.
func (c ErrorCode) Retryable() bool {
	return c == CodeNotYetPaid || c == CodeGatewayUnavailable
}

// APIError is the error envelope. Success handlers return their own
// endpoint-specific structs with success:true.
type APIError struct {
	Success bool      `json:"success"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
	// Data carries failure context (e.g. the expired subscription window)
	// so clients can render a prompt without a second round trip.
	Data any `json:"data,omitempty"`
}

// OK is the success envelope.
type OK struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func Success(data any) *OK {
	return &OK{Success: true, Data: data}
}

func Fail(code ErrorCode, msg string) *APIError {
	return &APIError{Success: false, Code: code, Message: msg}
}

func FailWith(code ErrorCode, msg string, data any) *APIError {
	return &APIError{Success: false, Code: code, Message: msg, Data: data}
}

// AbortWith writes the error envelope and stops the handler chain.
func AbortWith(c *gin.Context, status int, code ErrorCode, msg string) {
	c.AbortWithStatusJSON(status, Fail(code, msg))
}

func AbortWithData(c *gin.Context, status int, code ErrorCode, msg string, data any) {
	c.AbortWithStatusJSON(status, FailWith(code, msg, data))
}
