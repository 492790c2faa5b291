package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cfgpkg "github.com/propmarket/portal/pkg/config"
	"github.com/propmarket/portal/pkg/types"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
)

var ErrUnauthorized = errors.New("unauthorized")

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses the HS256 access tokens that carry the
// request principal.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg *cfgpkg.Config) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.Auth.JWTSecret),
		ttl:    cfg.TokenTTL(),
		now:    time.Now,
	}
}

func (m *TokenManager) Issue(p types.Principal) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return "", time.Time{}, fmt.Errorf("invalid token payload: missing user id")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := tokenClaims{
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) Parse(raw string) (types.Principal, error) {
	if strings.TrimSpace(raw) == "" {
		return types.Principal{}, ErrUnauthorized
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || token == nil || !token.Valid {
		return types.Principal{}, ErrUnauthorized
	}

	role, ok := types.ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return types.Principal{}, ErrUnauthorized
	}
	return types.Principal{UserID: claims.Subject, Email: claims.Email, Role: role}, nil
}

var Module = fx.Options(
	fx.Provide(NewTokenManager),
)
