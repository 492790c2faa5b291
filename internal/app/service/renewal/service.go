package renewal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propmarket/portal/internal/app/service/billing"
	"github.com/propmarket/portal/internal/app/service/mailer"
	"github.com/propmarket/portal/internal/app/service/paymentlog"
	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/internal/platform/gateway"
	"github.com/propmarket/portal/internal/repository"
	"github.com/propmarket/portal/pkg/config"
	"github.com/propmarket/portal/pkg/logctx"
	"github.com/propmarket/portal/pkg/metrics"
	"github.com/propmarket/portal/pkg/tool"
	"github.com/propmarket/portal/pkg/types"

	"go.uber.org/zap"
)

type gatewayAPI interface {
	CreateOrder(ctx context.Context, req *gateway.CreateOrderRequest) (*gateway.OrderSession, error)
	ListPayments(ctx context.Context, orderID string) ([]gateway.Payment, error)
}

type Service struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	users   repository.Users
	ledger  repository.Ledger
	gw      gatewayAPI
	mail    *mailer.Service
	events  *paymentlog.Service
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(
	cfg *config.Config,
	log *zap.SugaredLogger,
	users repository.Users,
	ledger repository.Ledger,
	gw *gateway.Client,
	mail *mailer.Service,
	events *paymentlog.Service,
	m *metrics.Metrics,
) Manager {
	return &Service{
		cfg:     cfg,
		log:     log,
		users:   users,
		ledger:  ledger,
		gw:      gw,
		mail:    mail,
		events:  events,
		metrics: m,
		now:     time.Now,
	}
}

// Lookup resolves an email and declared role to the existing account so the
// client can show who is renewing. No mutation happens here.
func (s *Service) Lookup(ctx context.Context, email string, role types.Role) (*LookupResult, error) {
	if !role.Payable() {
		return nil, fmt.Errorf("role %q does not carry a subscription", role)
	}
	u, err := s.users.GetByEmailAndRole(ctx, normalizeEmail(email), role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup renewal account: %w", err)
	}
	return &LookupResult{
		UserID:       u.ID,
		Name:         u.Name,
		Role:         u.Role,
		Subscription: billing.Info(&u.Subscription, s.now()),
	}, nil
}

// CreateOrder opens a renewal payment order for the account. The caller
// must supply both the user id and the matching email; a mismatch is
// rejected before the gateway is touched.
func (s *Service) CreateOrder(ctx context.Context, userID, email string) (*OrderResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load renewal account: %w", err)
	}
	if normalizeEmail(email) != normalizeEmail(u.Email) {
		return nil, ErrIdentityMismatch
	}
	plan := s.cfg.GetPlan(u.Role)
	if plan == nil {
		return nil, fmt.Errorf("no plan configured for role %q", u.Role)
	}

	orderID := gateway.BuildOrderID(u.ID, s.now())
	session, err := s.gw.CreateOrder(ctx, &gateway.CreateOrderRequest{
		OrderID:  orderID,
		Amount:   plan.Amount,
		Currency: plan.Currency,
		Customer: gateway.Customer{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Phone: u.Phone,
		},
		ReturnURL: s.cfg.FrontendBaseURL + plan.ReturnPath,
		Note:      fmt.Sprintf("%s renewal", u.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("create renewal order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncOrderCreated("renewal", string(u.Role))
	}
	log.Infow("renewal order created", "user_id", u.ID, "order_id", session.OrderID, "role", u.Role)

	return &OrderResult{
		OrderID:       session.OrderID,
		SessionHandle: session.PaymentSessionID,
		Amount:        plan.Amount,
		Currency:      plan.Currency,
	}, nil
}

// VerifyPayment confirms the payment and extends the subscription. The
// extension is applied at most once per order id: a repeat call sees the
// stored order id already matching and reports the current state instead
// of extending again.
func (s *Service) VerifyPayment(ctx context.Context, userID, orderID string) (result *VerifyResult, err error) {
	log := logctx.FromCtx(ctx, s.log)

	if s.events != nil {
		received := paymentlog.Received("renewal_verify", orderID, &userID, logctx.TraceIDFromCtx(ctx), nil)
		defer func() { s.events.Save(ctx, paymentlog.Outcome(received, result, err)) }()
	}

	owner, err := gateway.ParseOrderUserID(orderID)
	if err != nil {
		return nil, fmt.Errorf("parse order id: %w", err)
	}
	if owner != userID {
		return nil, ErrIdentityMismatch
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load renewal account: %w", err)
	}

	now := s.now()
	if u.Subscription.OrderID == orderID {
		log.Infow("renewal already applied for order", "user_id", u.ID, "order_id", orderID)
		return &VerifyResult{
			UserID:           u.ID,
			AlreadyProcessed: true,
			Subscription:     billing.Info(&u.Subscription, now),
		}, nil
	}

	payments, err := s.gw.ListPayments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch payments for %s: %w", orderID, err)
	}
	pay := gateway.SuccessfulPayment(payments)
	if pay == nil {
		if gateway.AllFailed(payments) {
			if s.metrics != nil {
				s.metrics.IncPaymentVerified("renewal", "failed")
			}
			return nil, ErrPaymentFailed
		}
		return nil, ErrNotYetPaid
	}

	plan := s.cfg.GetPlan(u.Role)
	if plan == nil {
		return nil, fmt.Errorf("no plan configured for role %q", u.Role)
	}

	currentExpiry := billing.ExpiryOf(&u.Subscription)
	timing := "expired"
	if currentExpiry != nil && currentExpiry.After(now) {
		timing = "early"
	}
	paidAt := pay.PaymentTime
	if paidAt.IsZero() {
		paidAt = now
	}
	newExpiry := billing.ComputeExpiry(billing.ComputeRenewalBase(currentExpiry, now))

	sub := models.Subscription{
		Active:        true,
		PaidAt:        &paidAt,
		LastPaidAt:    &paidAt,
		ExpiresAt:     &newExpiry,
		Amount:        pay.Amount,
		Currency:      plan.Currency,
		Gateway:       gateway.Name,
		OrderID:       orderID,
		PaymentID:     pay.PaymentID,
		PaymentStatus: pay.PaymentStatus,
	}
	if err := s.users.SaveSubscription(ctx, u.ID, sub); err != nil {
		return nil, fmt.Errorf("save renewed subscription: %w", err)
	}
	if err := s.ledger.Append(ctx, &models.SubscriptionLedger{
		ID:        tool.GenerateUUIDV7(),
		UserID:    u.ID,
		Role:      u.Role,
		Status:    types.LedgerStatusActive,
		OrderID:   orderID,
		PaymentID: pay.PaymentID,
		Amount:    pay.Amount,
		Currency:  plan.Currency,
		StartedAt: paidAt,
		ExpiresAt: newExpiry,
	}); err != nil {
		return nil, fmt.Errorf("append subscription ledger: %w", err)
	}

	emailSent := false
	if s.mail != nil {
		emailSent = s.mail.SendRenewalConfirmation(ctx, u.Email, u.Name, newExpiry)
	}
	if s.metrics != nil {
		s.metrics.IncPaymentVerified("renewal", "success")
		s.metrics.IncRenewal(string(u.Role), timing)
	}
	log.Infow("subscription renewed",
		"user_id", u.ID, "order_id", orderID, "timing", timing, "expires_at", newExpiry)

	return &VerifyResult{
		UserID:       u.ID,
		EmailSent:    emailSent,
		Subscription: billing.Info(&sub, now),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
