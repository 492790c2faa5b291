package renewal

import (
	"context"
	"testing"
	"time"

	"github.com/propmarket/portal/internal/app/service/mailer"
	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/internal/platform/gateway"
	"github.com/propmarket/portal/internal/repository"
	"github.com/propmarket/portal/pkg/config"
	"github.com/propmarket/portal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users []*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmailAndRole(_ context.Context, email string, role types.Role) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.Role == role {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByOrderID(_ context.Context, orderID string) (*models.User, error) {
	for _, u := range f.users {
		if u.Subscription.OrderID == orderID {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.users = append(f.users, u)
	return nil
}

func (f *fakeUsers) SaveSubscription(_ context.Context, userID string, sub models.Subscription) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.Subscription = sub
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeLedger struct {
	entries []*models.SubscriptionLedger
}

func (f *fakeLedger) Append(_ context.Context, e *models.SubscriptionLedger) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedger) ListActive(_ context.Context) ([]*models.SubscriptionLedger, error) {
	var out []*models.SubscriptionLedger
	for _, e := range f.entries {
		if e.Status == types.LedgerStatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) MarkExpired(_ context.Context, id string) error {
	for _, e := range f.entries {
		if e.ID == id {
			e.Status = types.LedgerStatusExpired
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeLedger) Scan(_ context.Context, _ *repository.ScanRequest) ([]*models.SubscriptionLedger, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

type stubGateway struct {
	payments []gateway.Payment
	listErr  error
}

func (g *stubGateway) CreateOrder(_ context.Context, req *gateway.CreateOrderRequest) (*gateway.OrderSession, error) {
	return &gateway.OrderSession{
		OrderID:          req.OrderID,
		PaymentSessionID: "session_" + req.OrderID,
		OrderStatus:      "ACTIVE",
	}, nil
}

func (g *stubGateway) ListPayments(_ context.Context, _ string) ([]gateway.Payment, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.payments, nil
}

type recordingSender struct {
	sent []string
}

func (r *recordingSender) Send(_ context.Context, to, subject, _ string) error {
	r.sent = append(r.sent, to+": "+subject)
	return nil
}

type env struct {
	svc    *Service
	users  *fakeUsers
	ledger *fakeLedger
	gw     *stubGateway
	sender *recordingSender
}

func newEnv(now time.Time) *env {
	log := zap.NewNop().Sugar()
	e := &env{
		users:  &fakeUsers{},
		ledger: &fakeLedger{},
		gw:     &stubGateway{},
		sender: &recordingSender{},
	}
	e.svc = &Service{
		cfg: &config.Config{
			Plans: []*config.PlanConfig{
				{Role: types.RoleAgent, Amount: 1999, Currency: "INR", ReturnPath: "/agent/payment-status"},
				{Role: types.RoleServiceProvider, Amount: 1499, Currency: "INR", ReturnPath: "/services/payment-status"},
			},
			FrontendBaseURL: "https://portal.test",
		},
		log:    log,
		users:  e.users,
		ledger: e.ledger,
		gw:     e.gw,
		mail:   mailer.NewService(e.sender, log),
		now:    func() time.Time { return now },
	}
	return e
}

func (e *env) addAgent(id string, expiresAt *time.Time) *models.User {
	u := &models.User{
		ID: id, Role: types.RoleAgent, Name: "Asha", Email: "asha@example.com",
		Subscription: models.Subscription{Active: true, ExpiresAt: expiresAt},
	}
	e.users.users = append(e.users.users, u)
	return u
}

func TestLookupReturnsRedactedProfile(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	e := newEnv(now)
	e.addAgent("u1", &exp)

	res, err := e.svc.Lookup(context.Background(), " ASHA@example.com ", types.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, "u1", res.UserID)
	assert.True(t, res.Subscription.Active)
	assert.Equal(t, 5, res.Subscription.DaysRemaining)
}

func TestLookupUnknownUser(t *testing.T) {
	e := newEnv(time.Now())
	_, err := e.svc.Lookup(context.Background(), "nobody@example.com", types.RoleAgent)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateOrderRejectsEmailMismatch(t *testing.T) {
	e := newEnv(time.Now())
	e.addAgent("u1", nil)

	_, err := e.svc.CreateOrder(context.Background(), "u1", "someone-else@example.com")
	assert.ErrorIs(t, err, ErrIdentityMismatch)
}

func TestCreateOrderEmbedsUserID(t *testing.T) {
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	e := newEnv(now)
	e.addAgent("u1", nil)

	res, err := e.svc.CreateOrder(context.Background(), "u1", "asha@example.com")
	require.NoError(t, err)
	owner, err := gateway.ParseOrderUserID(res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
	assert.Equal(t, 1999.0, res.Amount)
}

func TestVerifyPaymentEarlyRenewalExtendsFromExpiry(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	e := newEnv(now)
	u := e.addAgent("u1", &exp)

	orderID := gateway.BuildOrderID("u1", now)
	e.gw.payments = []gateway.Payment{{
		PaymentID: "cfpay_2", PaymentStatus: gateway.PaymentStatusSuccess,
		Amount: 1999, Currency: "INR", PaymentTime: now,
	}}

	res, err := e.svc.VerifyPayment(context.Background(), "u1", orderID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyProcessed)
	assert.True(t, res.EmailSent)

	require.NotNil(t, u.Subscription.ExpiresAt)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *u.Subscription.ExpiresAt)
	assert.Equal(t, orderID, u.Subscription.OrderID)
	require.Len(t, e.ledger.entries, 1)
}

func TestVerifyPaymentExpiredRenewalExtendsFromNow(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := newEnv(now)
	u := e.addAgent("u1", &exp)
	u.Subscription.Active = false

	orderID := gateway.BuildOrderID("u1", now)
	e.gw.payments = []gateway.Payment{{
		PaymentID: "cfpay_3", PaymentStatus: gateway.PaymentStatusSuccess,
		Amount: 1999, Currency: "INR", PaymentTime: now,
	}}

	res, err := e.svc.VerifyPayment(context.Background(), "u1", orderID)
	require.NoError(t, err)
	assert.True(t, res.Subscription.Active)
	require.NotNil(t, u.Subscription.ExpiresAt)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *u.Subscription.ExpiresAt)
	assert.True(t, u.Subscription.Active)
}

func TestVerifyPaymentAppliesOrderOnlyOnce(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	e := newEnv(now)
	u := e.addAgent("u1", &exp)

	orderID := gateway.BuildOrderID("u1", now)
	e.gw.payments = []gateway.Payment{{
		PaymentID: "cfpay_4", PaymentStatus: gateway.PaymentStatusSuccess,
		Amount: 1999, Currency: "INR", PaymentTime: now,
	}}

	_, err := e.svc.VerifyPayment(context.Background(), "u1", orderID)
	require.NoError(t, err)
	firstExpiry := *u.Subscription.ExpiresAt

	second, err := e.svc.VerifyPayment(context.Background(), "u1", orderID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, firstExpiry, *u.Subscription.ExpiresAt)
	assert.Len(t, e.ledger.entries, 1)
}

func TestVerifyPaymentRejectsForeignOrder(t *testing.T) {
	now := time.Now().UTC()
	e := newEnv(now)
	e.addAgent("u1", nil)
	e.addAgent("u2", nil)

	orderID := gateway.BuildOrderID("u2", now)
	_, err := e.svc.VerifyPayment(context.Background(), "u1", orderID)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
}

func TestVerifyPaymentOutcomes(t *testing.T) {
	now := time.Now().UTC()
	e := newEnv(now)
	e.addAgent("u1", nil)
	orderID := gateway.BuildOrderID("u1", now)

	e.gw.payments = nil
	_, err := e.svc.VerifyPayment(context.Background(), "u1", orderID)
	assert.ErrorIs(t, err, ErrNotYetPaid)

	e.gw.payments = []gateway.Payment{{PaymentID: "p1", PaymentStatus: gateway.PaymentStatusFailed}}
	_, err = e.svc.VerifyPayment(context.Background(), "u1", orderID)
	assert.ErrorIs(t, err, ErrPaymentFailed)

	e.gw.listErr = gateway.ErrGatewayUnavailable
	_, err = e.svc.VerifyPayment(context.Background(), "u1", orderID)
	assert.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
}
