package middleware

import (
	"context"
	"strings"

	"github.com/propmarket/portal/internal/app/service/auth"
	"github.com/propmarket/portal/pkg/response"
	"github.com/propmarket/portal/pkg/types"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthMiddleware decodes the Bearer token into a Principal and rejects the
// request when the token is missing or invalid. Role checks happen later,
// in the subscription guard or per-route.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			response.AbortWith(c, 401, response.CodeUnauthorized, "missing bearer token")
			return
		}
		principal, err := tokens.Parse(raw)
		if err != nil {
			response.AbortWith(c, 401, response.CodeUnauthorized, "invalid or expired token")
			return
		}
		c.Set(principalKey, principal)
		c.Set("user_id", principal.UserID)
		ctx := context.WithValue(c.Request.Context(), "user_id", principal.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal set by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (types.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return types.Principal{}, false
	}
	p, ok := v.(types.Principal)
	return p, ok
}
