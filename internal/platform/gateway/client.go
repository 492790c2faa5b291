// Package gateway wraps the Cashfree-style payments API behind the three
// operations the flows need: create order, fetch order, list payments. It is
// the only code that talks to the gateway; everything else sees domain
// outcomes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	cfgpkg "github.com/propmarket/portal/pkg/config"
	"github.com/propmarket/portal/pkg/metrics"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Name identifies the gateway in persisted subscription records.
const Name = "cashfree"

const (
	sandboxBaseURL    = "https://sandbox.cashfree.com/pg"
	productionBaseURL = "https://api.cashfree.com/pg"
	apiVersion        = "2023-08-01"
)

// ErrGatewayUnavailable marks network errors, timeouts and gateway 5xx
// responses. It means "payment state unknown, retry" and must never be
// conflated with a definite payment failure.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// PaymentStatus values reported by the gateway.
const (
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
	PaymentStatusPending = "PENDING"
)

type Customer struct {
	ID    string `json:"customer_id"`
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

type CreateOrderRequest struct {
	OrderID   string
	Amount    float64
	Currency  string
	Customer  Customer
	ReturnURL string
	Note      string
}

// OrderSession is the handle the browser needs to open the hosted checkout.
type OrderSession struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
}

type Order struct {
	OrderID     string  `json:"order_id"`
	OrderStatus string  `json:"order_status"`
	OrderAmount float64 `json:"order_amount"`
	Currency    string  `json:"order_currency"`
}

type Payment struct {
	PaymentID     string    `json:"cf_payment_id"`
	PaymentStatus string    `json:"payment_status"`
	Amount        float64   `json:"payment_amount"`
	Currency      string    `json:"payment_currency"`
	PaymentTime   time.Time `json:"payment_time"`
	Message       string    `json:"payment_message"`
}

type Client struct {
	baseURL string
	appID   string
	secret  string
	http    *http.Client
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewClient(cfg *cfgpkg.Config, log *zap.SugaredLogger, m *metrics.Metrics) *Client {
	baseURL := sandboxBaseURL
	if cfg.Gateway.IsProd {
		baseURL = productionBaseURL
	}
	return &Client{
		baseURL: baseURL,
		appID:   cfg.Gateway.AppID,
		secret:  cfg.Gateway.SecretKey,
		http:    &http.Client{Timeout: cfg.GatewayTimeout()},
		log:     log,
		metrics: m,
	}
}

type gatewayError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveGatewayOp(op, time.Since(start))
		}
	}()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("x-client-id", c.appID)
	req.Header.Set("x-client-secret", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport errors leave payment state unknown.
		return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s returned %d", ErrGatewayUnavailable, op, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var ge gatewayError
		if err := json.NewDecoder(resp.Body).Decode(&ge); err == nil && ge.Message != "" {
			return fmt.Errorf("gateway rejected %s: %s (%s)", op, ge.Message, ge.Code)
		}
		return fmt.Errorf("gateway rejected %s: status %d", op, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}
	return nil
}

// CreateOrder registers a payment order and returns the checkout session
// handle the client completes payment with.
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderSession, error) {
	payload := map[string]any{
		"order_id":         req.OrderID,
		"order_amount":     req.Amount,
		"order_currency":   req.Currency,
		"customer_details": req.Customer,
		"order_note":       req.Note,
		"order_meta": map[string]any{
			"return_url": req.ReturnURL,
		},
	}
	var session OrderSession
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", payload, &session); err != nil {
		return nil, err
	}
	c.log.Infow("gateway order created", "order_id", session.OrderID, "status", session.OrderStatus)
	return &session, nil
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, "fetch_order", http.MethodGet, "/orders/"+orderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListPayments returns every payment attempt recorded against an order.
func (c *Client) ListPayments(ctx context.Context, orderID string) ([]Payment, error) {
	var payments []Payment
	if err := c.do(ctx, "list_payments", http.MethodGet, "/orders/"+orderID+"/payments", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// SuccessfulPayment picks the SUCCESS entry out of a payment list. A nil
// result means "not verified yet", which callers treat as retryable, not as
// a hard rejection.
func SuccessfulPayment(payments []Payment) *Payment {
	for i := range payments {
		if payments[i].PaymentStatus == PaymentStatusSuccess {
			return &payments[i]
		}
	}
	return nil
}

// AllFailed reports whether the order has attempts and every one of them is
// a terminal failure. Distinct from "no SUCCESS yet": a PENDING attempt
// keeps the order retryable.
func AllFailed(payments []Payment) bool {
	if len(payments) == 0 {
		return false
	}
	for i := range payments {
		if payments[i].PaymentStatus != PaymentStatusFailed {
			return false
		}
	}
	return true
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
