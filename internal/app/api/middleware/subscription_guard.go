package middleware

import (
	"time"

	"github.com/propmarket/portal/internal/app/service/billing"
	"github.com/propmarket/portal/internal/repository"
	"github.com/propmarket/portal/pkg/logctx"
	"github.com/propmarket/portal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubscriptionGuard rejects requests from payable-role accounts whose paid
// window has lapsed. Admin and other non-payable roles pass through
// untouched. Must run after AuthMiddleware.
//
// Legacy rows carry a payment timestamp but no expiry; the guard derives
// the expiry on first sight and writes it back so later reads are cheap.
func SubscriptionGuard(users repository.Users, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.AbortWith(c, 401, response.CodeUnauthorized, "authentication required")
			return
		}
		if !principal.Role.Payable() {
			c.Next()
			return
		}

		u, err := users.GetByID(c.Request.Context(), principal.UserID)
		if err != nil {
			response.AbortWith(c, 401, response.CodeUnauthorized, "unknown account")
			return
		}

		now := time.Now()
		expiry := billing.ExpiryOf(&u.Subscription)
		if u.Subscription.ExpiresAt == nil && expiry != nil {
			sub := u.Subscription
			sub.ExpiresAt = expiry
			if serr := users.SaveSubscription(c.Request.Context(), u.ID, sub); serr != nil {
				logctx.FromGin(c, log).Warnw("persist backfilled expiry",
					"user_id", u.ID, "error", serr)
			}
			u.Subscription = sub
		}

		if !billing.IsValid(&u.Subscription, now) {
			response.AbortWithData(c, 403, response.CodeSubscriptionExpired,
				"subscription expired, please renew", gin.H{
					"paid_at":    u.Subscription.EffectivePaidAt(),
					"expires_at": expiry,
				})
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only admin principals through. Runs after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok || !principal.IsAdmin() {
			response.AbortWith(c, 403, response.CodeUnauthorized, "admin access required")
			return
		}
		c.Next()
	}
}
