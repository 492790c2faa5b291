package handlers

import (
	"net/http"
	"time"

	"github.com/propmarket/portal/internal/app/api/middleware"
	"github.com/propmarket/portal/internal/app/service/billing"
	"github.com/propmarket/portal/internal/repository"
	"github.com/propmarket/portal/pkg/response"
	"github.com/propmarket/portal/pkg/types"

	"github.com/gin-gonic/gin"
)

type profileResp struct {
	UserID       string                 `json:"user_id"`
	Role         types.Role             `json:"role"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	Subscription types.SubscriptionInfo `json:"subscription"`
}

// ApiProfile returns the caller's own account and subscription state. It
// sits behind the subscription guard, so a lapsed account sees the 403
// renewal prompt instead of this payload.
func ApiProfile(users repository.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.PrincipalFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, response.Fail(response.CodeUnauthorized, "authentication required"))
			return
		}
		u, err := users.GetByID(c.Request.Context(), principal.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, response.Fail(response.CodeUnauthorized, "unknown account"))
			return
		}
		c.JSON(http.StatusOK, response.Success(profileResp{
			UserID:       u.ID,
			Role:         u.Role,
			Name:         u.Name,
			Email:        u.Email,
			Subscription: billing.Info(&u.Subscription, time.Now()),
		}))
	}
}

func RegisterProfileRoutes(r gin.IRouter, users repository.Users) {
	r.GET("/me", ApiProfile(users))
}
