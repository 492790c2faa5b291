package handlers

import (
	"net/http"

	"github.com/propmarket/portal/internal/app/service/renewal"
	"github.com/propmarket/portal/pkg/response"
	"github.com/propmarket/portal/pkg/types"

	"github.com/gin-gonic/gin"
)

type renewalLookupReq struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type renewalOrderReq struct {
	UserID string `json:"user_id" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
}

type renewalVerifyReq struct {
	UserID  string `json:"user_id" binding:"required"`
	OrderID string `json:"order_id" binding:"required"`
}

func ApiRenewalLookup(mgr renewal.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req renewalLookupReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
			return
		}
		role, ok := types.ParseRole(req.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, "unknown role"))
			return
		}

		res, err := mgr.Lookup(c.Request.Context(), req.Email, role)
		if err != nil {
			writeFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(res))
	}
}

func ApiRenewalCreateOrder(mgr renewal.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req renewalOrderReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
			return
		}

		res, err := mgr.CreateOrder(c.Request.Context(), req.UserID, req.Email)
		if err != nil {
			writeFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(res))
	}
}

func ApiRenewalVerifyPayment(mgr renewal.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req renewalVerifyReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
			return
		}

		res, err := mgr.VerifyPayment(c.Request.Context(), req.UserID, req.OrderID)
		if err != nil {
			writeFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(res))
	}
}

func RegisterRenewalRoutes(r gin.IRouter, mgr renewal.Manager) {
	r.POST("/renewal/verify-email", ApiRenewalLookup(mgr))
	r.POST("/renewal/create-order", ApiRenewalCreateOrder(mgr))
	r.POST("/renewal/verify-payment", ApiRenewalVerifyPayment(mgr))
}
