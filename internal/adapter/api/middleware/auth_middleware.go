package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"campuslink/internal/domain/entity"
	"campuslink/internal/infrastructure/auth"
	"campuslink/pkg/errors"
	"campuslink/pkg/response"
)

const (
	ContextKeyUID      = "uid"
	ContextKeyIdentity = "identity"
)

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (entity.Identity, error)
}

type AuthMiddleware struct {
	verifier   auth.TokenVerifier
	identities IdentityResolver
}

func NewAuthMiddleware(verifier auth.TokenVerifier, identities IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		identities: identities,
	}
}

// Authenticate rejects requests without a valid token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := m.identify(c)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(ContextKeyUID, identity.ID)
		c.Set(ContextKeyIdentity, identity)
		return next(c)
	}
}

// Identify attaches the identity when a valid token is present and lets the
// request through as anonymous otherwise. The WebSocket route uses it so that
// unauthenticated sockets are closed the same way as unauthorized ones.
func (m *AuthMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if identity, err := m.identify(c); err == nil {
			c.Set(ContextKeyUID, identity.ID)
			c.Set(ContextKeyIdentity, identity)
		}
		return next(c)
	}
}

func (m *AuthMiddleware) identify(c echo.Context) (entity.Identity, error) {
	token := tokenFromRequest(c)
	if token == "" {
		return entity.Anonymous, errors.Unauthorized("Authorization header is required", nil)
	}

	ctx := c.Request().Context()
	uid, err := m.verifier.Verify(ctx, token)
	if err != nil {
		return entity.Anonymous, errors.Unauthorized("Invalid or expired token", err)
	}

	return m.identities.ResolveIdentity(ctx, uid)
}

// tokenFromRequest reads "Authorization: Bearer <token>", falling back to the
// token query parameter for browser WebSocket clients that cannot set headers.
func tokenFromRequest(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.QueryParam("token")
}

// IdentityFrom returns the identity set by Authenticate or Identify.
func IdentityFrom(c echo.Context) entity.Identity {
	identity, ok := c.Get(ContextKeyIdentity).(entity.Identity)
	if !ok {
		return entity.Anonymous
	}
	return identity
}
