package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmarket/portal/internal/app/service/registration"
	"github.com/propmarket/portal/internal/platform/gateway"
)

type stubRegMgr struct {
	stageRes  *registration.StageResult
	verifyRes *registration.VerifyResult
	err       error
}

func (s *stubRegMgr) Stage(_ context.Context, _ *registration.StageRequest) (*registration.StageResult, error) {
	return s.stageRes, s.err
}

func (s *stubRegMgr) Verify(_ context.Context, _, _ string) (*registration.VerifyResult, error) {
	return s.verifyRes, s.err
}

func regRouter(mgr registration.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRegistrationRoutes(r, mgr)
	return r
}

func postJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiStageRegistration_OK(t *testing.T) {
	r := regRouter(&stubRegMgr{stageRes: &registration.StageResult{
		CorrelationID: "c1", OrderID: "order_c1_1_aaaa", SessionHandle: "sess", Amount: 1999, Currency: "INR",
	}})

	w := postJSON(r, "/registration/create-order", map[string]any{
		"role": "agent", "name": "Asha", "email": "asha@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order_c1_1_aaaa")
}

func TestApiStageRegistration_LegacyRoleAlias(t *testing.T) {
	mgr := &stubRegMgr{stageRes: &registration.StageResult{CorrelationID: "c1"}}
	r := regRouter(mgr)

	w := postJSON(r, "/registration/create-order", map[string]any{
		"role": "service", "name": "Ravi", "email": "ravi@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestApiStageRegistration_MissingFields(t *testing.T) {
	r := regRouter(&stubRegMgr{})

	w := postJSON(r, "/registration/create-order", map[string]any{
		"role": "agent", "email": "asha@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	w = postJSON(r, "/registration/create-order", map[string]any{
		"role": "agent", "name": "Asha",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestApiStageRegistration_InvalidRequestError(t *testing.T) {
	// The service rejects blank-after-trim fields itself; that must
	// surface as a 400, not an internal error.
	err := fmt.Errorf("%w: name and email are required", registration.ErrInvalidRequest)
	r := regRouter(&stubRegMgr{err: err})

	w := postJSON(r, "/registration/create-order", map[string]any{
		"role": "agent", "name": "   ", "email": "asha@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, w.Body.String(), "name and email are required")
}

func TestApiStageRegistration_UnknownRole(t *testing.T) {
	r := regRouter(&stubRegMgr{})
	w := postJSON(r, "/registration/create-order", map[string]any{
		"role": "landlord", "name": "x", "email": "x@y.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestApiVerifyRegistration_ErrorCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"session expired", registration.ErrSessionExpired, 400, "SessionExpired"},
		{"not yet paid", registration.ErrNotYetPaid, 400, "NotYetPaid"},
		{"payment failed", registration.ErrPaymentFailed, 400, "PaymentFailed"},
		{"gateway down", gateway.ErrGatewayUnavailable, 503, "GATEWAY_UNAVAILABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := regRouter(&stubRegMgr{err: tc.err})
			w := postJSON(r, "/registration/verify", map[string]any{
				"correlation_id": "c1", "order_id": "order_c1_1_aaaa",
			})
			require.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.code)
		})
	}
}

func TestApiVerifyRegistration_OK(t *testing.T) {
	r := regRouter(&stubRegMgr{verifyRes: &registration.VerifyResult{
		UserID: "u1", AccessToken: "tok", EmailSent: true,
	}})
	w := postJSON(r, "/registration/verify", map[string]any{
		"correlation_id": "c1", "order_id": "order_c1_1_aaaa",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"user_id\":\"u1\"")
}
