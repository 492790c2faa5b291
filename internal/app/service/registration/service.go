package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propmarket/portal/internal/app/service/auth"
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
	pending repository.Pending
	ledger  repository.Ledger
	gw      gatewayAPI
	tokens  *auth.TokenManager
	mail    *mailer.Service
	events  *paymentlog.Service
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(
	cfg *config.Config,
	log *zap.SugaredLogger,
	users repository.Users,
	pending repository.Pending,
	ledger repository.Ledger,
	gw *gateway.Client,
	tokens *auth.TokenManager,
	mail *mailer.Service,
	events *paymentlog.Service,
	m *metrics.Metrics,
) Manager {
	return &Service{
		cfg:     cfg,
		log:     log,
		users:   users,
		pending: pending,
		ledger:  ledger,
		gw:      gw,
		tokens:  tokens,
		mail:    mail,
		events:  events,
		metrics: m,
		now:     time.Now,
	}
}

// Stage stores the submitted registration data server side and opens a
// payment order for the role's plan. No user account exists until the
// payment is verified.
func (s *Service) Stage(ctx context.Context, req *StageRequest) (*StageResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	if !req.Role.Payable() {
		return nil, fmt.Errorf("%w: role %q does not require a paid subscription", ErrInvalidRequest, req.Role)
	}
	plan := s.cfg.GetPlan(req.Role)
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan configured for role %q", ErrInvalidRequest, req.Role)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidRequest)
	}

	now := s.now()
	correlationID := tool.GenerateUUIDV7()
	orderID := gateway.BuildOrderID(correlationID, now)

	session, err := s.gw.CreateOrder(ctx, &gateway.CreateOrderRequest{
		OrderID:  orderID,
		Amount:   plan.Amount,
		Currency: plan.Currency,
		Customer: gateway.Customer{
			ID:    correlationID,
			Name:  req.Name,
			Email: email,
			Phone: req.Phone,
		},
		ReturnURL: s.cfg.FrontendBaseURL + plan.ReturnPath,
		Note:      fmt.Sprintf("%s registration", req.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("create registration order: %w", err)
	}

	row := &models.PendingRegistration{
		ID:        correlationID,
		Role:      req.Role,
		Name:      req.Name,
		Email:     email,
		Phone:     req.Phone,
		Profile:   req.Profile,
		Documents: req.Documents,
		OrderID:   session.OrderID,
	}
	if err := s.pending.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("stage registration: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncOrderCreated("registration", string(req.Role))
	}
	log.Infow("registration staged",
		"correlation_id", correlationID, "order_id", session.OrderID, "role", req.Role)

	return &StageResult{
		CorrelationID: correlationID,
		OrderID:       session.OrderID,
		SessionHandle: session.PaymentSessionID,
		Amount:        plan.Amount,
		Currency:      plan.Currency,
	}, nil
}

// Verify checks the gateway for a successful payment on the staged order
// and, on success, creates the user account with an active subscription.
// The staged record is consumed exactly once: a second Verify after
// success reports the already created account instead of creating another.
func (s *Service) Verify(ctx context.Context, correlationID, orderID string) (result *VerifyResult, err error) {
	log := logctx.FromCtx(ctx, s.log)

	if s.events != nil {
		received := paymentlog.Received("registration_verify", orderID, nil, logctx.TraceIDFromCtx(ctx), nil)
		defer func() { s.events.Save(ctx, paymentlog.Outcome(received, result, err)) }()
	}

	staged, err := s.pending.Get(ctx, correlationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The record was consumed by an earlier verify or purged by the
			// sweep. If a user already exists for the order we report it;
			// otherwise the session is gone.
			if u, uerr := s.users.GetByOrderID(ctx, orderID); uerr == nil {
				return s.existingResult(ctx, u)
			}
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("load staged registration: %w", err)
	}
	if staged.OrderID != orderID {
		return nil, fmt.Errorf("order %q does not belong to this registration", orderID)
	}

	payments, err := s.gw.ListPayments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch payments for %s: %w", orderID, err)
	}
	pay := gateway.SuccessfulPayment(payments)
	if pay == nil {
		if gateway.AllFailed(payments) {
			if s.metrics != nil {
				s.metrics.IncPaymentVerified("registration", "failed")
			}
			return nil, ErrPaymentFailed
		}
		return nil, ErrNotYetPaid
	}

	// Duplicate guard: the email may have registered through another
	// session while this one was pending.
	if u, uerr := s.users.GetByEmail(ctx, staged.Email); uerr == nil {
		log.Infow("registration email already on an account, skipping create",
			"email", staged.Email, "user_id", u.ID)
		if derr := s.pending.Delete(ctx, correlationID); derr != nil {
			log.Warnw("delete consumed registration", "correlation_id", correlationID, "error", derr)
		}
		return s.existingResult(ctx, u)
	}

	plan := s.cfg.GetPlan(staged.Role)
	if plan == nil {
		return nil, fmt.Errorf("no plan configured for role %q", staged.Role)
	}

	now := s.now()
	paidAt := pay.PaymentTime
	if paidAt.IsZero() {
		paidAt = now
	}
	expiresAt := billing.ComputeExpiry(paidAt)
	user := &models.User{
		ID:        tool.GenerateUUIDV7(),
		Role:      staged.Role,
		Name:      staged.Name,
		Email:     staged.Email,
		Phone:     staged.Phone,
		Profile:   staged.Profile,
		Documents: staged.Documents,
		Subscription: models.Subscription{
			Active:        true,
			PaidAt:        &paidAt,
			ExpiresAt:     &expiresAt,
			Amount:        pay.Amount,
			Currency:      plan.Currency,
			Gateway:       gateway.Name,
			OrderID:       orderID,
			PaymentID:     pay.PaymentID,
			PaymentStatus: pay.PaymentStatus,
		},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.ledger.Append(ctx, &models.SubscriptionLedger{
		ID:        tool.GenerateUUIDV7(),
		UserID:    user.ID,
		Role:      user.Role,
		Status:    types.LedgerStatusActive,
		OrderID:   orderID,
		PaymentID: pay.PaymentID,
		Amount:    pay.Amount,
		Currency:  plan.Currency,
		StartedAt: paidAt,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("append subscription ledger: %w", err)
	}
	if err := s.pending.Delete(ctx, correlationID); err != nil {
		log.Warnw("delete consumed registration", "correlation_id", correlationID, "error", err)
	}

	token, _, err := s.tokens.Issue(types.Principal{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	emailSent := false
	if s.mail != nil {
		emailSent = s.mail.SendWelcome(ctx, user.Email, user.Name, expiresAt)
	}
	if s.metrics != nil {
		s.metrics.IncPaymentVerified("registration", "success")
	}
	log.Infow("registration completed",
		"user_id", user.ID, "role", user.Role, "order_id", orderID, "expires_at", expiresAt)

	return &VerifyResult{
		UserID:       user.ID,
		AccessToken:  token,
		EmailSent:    emailSent,
		Subscription: billing.Info(&user.Subscription, now),
	}, nil
}

func (s *Service) existingResult(ctx context.Context, u *models.User) (*VerifyResult, error) {
	token, _, err := s.tokens.Issue(types.Principal{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &VerifyResult{
		UserID:       u.ID,
		Existing:     true,
		AccessToken:  token,
		Subscription: billing.Info(&u.Subscription, s.now()),
	}, nil
}
