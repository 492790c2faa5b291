package handlers

import (
	"errors"
	"net/http"

	"github.com/propmarket/portal/internal/app/service/registration"
	"github.com/propmarket/portal/internal/app/service/renewal"
	"github.com/propmarket/portal/internal/platform/gateway"
	"github.com/propmarket/portal/pkg/response"
	"github.com/propmarket/portal/pkg/types"

	"github.com/gin-gonic/gin"
)

type verifyRegistrationReq struct {
	CorrelationID string `json:"correlation_id" binding:"required"`
	OrderID       string `json:"order_id" binding:"required"`
}

func ApiStageRegistration(mgr registration.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registration.StageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
			return
		}
		role, ok := types.ParseRole(string(req.Role))
		if !ok {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, "unknown role"))
			return
		}
		req.Role = role

		res, err := mgr.Stage(c.Request.Context(), &req)
		if err != nil {
			writeFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(res))
	}
}

func ApiVerifyRegistration(mgr registration.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyRegistrationReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
			return
		}

		res, err := mgr.Verify(c.Request.Context(), req.CorrelationID, req.OrderID)
		if err != nil {
			writeFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(res))
	}
}

func RegisterRegistrationRoutes(r gin.IRouter, mgr registration.Manager) {
	r.POST("/registration/create-order", ApiStageRegistration(mgr))
	r.POST("/registration/verify", ApiVerifyRegistration(mgr))
}

// writeFlowError maps flow sentinels onto the error taxonomy. NotYetPaid
// and GatewayUnavailable are retryable; clients poll on those codes.
func writeFlowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registration.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
	case errors.Is(err, registration.ErrSessionExpired):
		c.JSON(http.StatusBadRequest, response.Fail(response.CodeSessionExpired, "registration session expired, please start over"))
	case errors.Is(err, registration.ErrNotYetPaid), errors.Is(err, renewal.ErrNotYetPaid):
		c.JSON(http.StatusBadRequest, response.Fail(response.CodeNotYetPaid, "payment not completed yet, retry shortly"))
	case errors.Is(err, registration.ErrPaymentFailed), errors.Is(err, renewal.ErrPaymentFailed):
		c.JSON(http.StatusBadRequest, response.Fail(response.CodePaymentFailed, "payment failed"))
	case errors.Is(err, renewal.ErrIdentityMismatch):
		c.JSON(http.StatusForbidden, response.Fail(response.CodeIdentityMismatch, "identity does not match the account"))
	case errors.Is(err, renewal.ErrUserNotFound):
		c.JSON(http.StatusNotFound, response.Fail(response.CodeNotFound, "account not found"))
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		c.JSON(http.StatusServiceUnavailable, response.Fail(response.CodeGatewayUnavailable, "payment gateway unavailable, retry shortly"))
	default:
		c.JSON(http.StatusInternalServerError, response.Fail(response.CodeInternal, err.Error()))
	}
}
