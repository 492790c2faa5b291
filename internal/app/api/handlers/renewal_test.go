package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmarket/portal/internal/app/service/renewal"
	"github.com/propmarket/portal/pkg/types"
)

type stubRenewal struct {
	lookupRes *renewal.LookupResult
	orderRes  *renewal.OrderResult
	verifyRes *renewal.VerifyResult
	err       error
}

func (s *stubRenewal) Lookup(_ context.Context, _ string, _ types.Role) (*renewal.LookupResult, error) {
	return s.lookupRes, s.err
}

func (s *stubRenewal) CreateOrder(_ context.Context, _, _ string) (*renewal.OrderResult, error) {
	return s.orderRes, s.err
}

func (s *stubRenewal) VerifyPayment(_ context.Context, _, _ string) (*renewal.VerifyResult, error) {
	return s.verifyRes, s.err
}

func renRouter(mgr renewal.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRenewalRoutes(r, mgr)
	return r
}

func TestApiRenewalLookup_OK(t *testing.T) {
	r := renRouter(&stubRenewal{lookupRes: &renewal.LookupResult{
		UserID: "u1", Name: "Asha", Role: types.RoleAgent,
	}})
	w := postJSON(r, "/renewal/verify-email", map[string]any{
		"email": "asha@example.com", "role": "agent",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"user_id\":\"u1\"")
}

func TestApiRenewalLookup_NotFound(t *testing.T) {
	r := renRouter(&stubRenewal{err: renewal.ErrUserNotFound})
	w := postJSON(r, "/renewal/verify-email", map[string]any{
		"email": "nobody@example.com", "role": "agent",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestApiRenewalCreateOrder_IdentityMismatch(t *testing.T) {
	r := renRouter(&stubRenewal{err: renewal.ErrIdentityMismatch})
	w := postJSON(r, "/renewal/create-order", map[string]any{
		"user_id": "u1", "email": "wrong@example.com",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "IDENTITY_MISMATCH")
}

func TestApiRenewalVerify_OK(t *testing.T) {
	r := renRouter(&stubRenewal{verifyRes: &renewal.VerifyResult{UserID: "u1", EmailSent: true}})
	w := postJSON(r, "/renewal/verify-payment", map[string]any{
		"user_id": "u1", "order_id": "order_u1_1_aaaa",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"user_id\":\"u1\"")
}
