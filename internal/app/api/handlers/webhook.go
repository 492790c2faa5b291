package handlers

import (
	"errors"
	"net/http"

	"github.com/propmarket/portal/internal/app/service/registration"
	"github.com/propmarket/portal/internal/app/service/renewal"
	"github.com/propmarket/portal/internal/platform/gateway"
	"github.com/propmarket/portal/pkg/logctx"
	"github.com/propmarket/portal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type gatewayWebhookReq struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
	} `json:"data"`
}

// ApiGatewayWebhook handles the gateway's server-to-server payment
// callback. It feeds the same verify paths as the synchronous endpoints,
// so a webhook landing after a client verify is a no-op. The gateway is
// always acked with 200 once the payload parses; verification failures
// are logged, not bounced, because the gateway retries on non-2xx.
func ApiGatewayWebhook(reg registration.Manager, ren renewal.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gatewayWebhookReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
			return
		}
		l := logctx.FromGin(c, log).With("order_id", req.Data.Order.OrderID, "type", req.Type)

		orderID := req.Data.Order.OrderID
		owner, err := gateway.ParseOrderUserID(orderID)
		if err != nil {
			l.Warnw("webhook with malformed order id", "error", err)
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, "malformed order id"))
			return
		}

		// The embedded id is a user id for renewal orders and a staging
		// correlation id for registration orders. Try renewal first; an
		// unknown user means the order belongs to a staged registration.
		_, err = ren.VerifyPayment(c.Request.Context(), owner, orderID)
		if errors.Is(err, renewal.ErrUserNotFound) {
			_, err = reg.Verify(c.Request.Context(), owner, orderID)
		}
		if err != nil {
			l.Infow("webhook verification not applied", "reason", err)
		} else {
			l.Infow("webhook verification applied")
		}
		c.JSON(http.StatusOK, response.Success(map[string]string{"status": "received"}))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, reg registration.Manager, ren renewal.Manager, log *zap.SugaredLogger) {
	r.POST("/webhook/payment", ApiGatewayWebhook(reg, ren, log))
}
