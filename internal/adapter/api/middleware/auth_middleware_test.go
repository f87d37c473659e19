package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuslink/internal/domain/entity"
	"campuslink/internal/infrastructure/auth"
	"campuslink/pkg/errors"
)

type identityMap map[string]entity.Identity

func (m identityMap) ResolveIdentity(_ context.Context, userID string) (entity.Identity, error) {
	identity, ok := m[userID]
	if !ok {
		return entity.Anonymous, errors.Unauthorized("Unknown user", nil)
	}
	return identity, nil
}

func newAuthTest(t *testing.T) (*echo.Echo, *auth.JWTManager) {
	t.Helper()
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	m := NewAuthMiddleware(jwt, identityMap{
		"alice": {ID: "alice", DisplayName: "Alice", Role: entity.RoleStudent},
	})

	e := echo.New()
	whoami := func(c echo.Context) error {
		identity := IdentityFrom(c)
		return c.String(http.StatusOK, identity.ID+"|"+identity.DisplayName)
	}
	e.GET("/strict", whoami, m.Authenticate)
	e.GET("/loose", whoami, m.Identify)
	return e, jwt
}

func serve(e *echo.Echo, target, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	e, jwt := newAuthTest(t)
	token, err := jwt.Issue("alice")
	require.NoError(t, err)

	rec := serve(e, "/strict", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice|Alice", rec.Body.String())

	rec = serve(e, "/strict?token="+token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, "/strict", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeUnauthorized)

	rec = serve(e, "/strict", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, "/strict", "Basic "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	unknown, err := jwt.Issue("mallory")
	require.NoError(t, err)
	rec = serve(e, "/strict", "Bearer "+unknown)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentifyLetsAnonymousThrough(t *testing.T) {
	e, jwt := newAuthTest(t)

	rec := serve(e, "/loose", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "|", rec.Body.String())

	rec = serve(e, "/loose", "Bearer garbage")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "|", rec.Body.String())

	token, err := jwt.Issue("alice")
	require.NoError(t, err)
	rec = serve(e, "/loose?token="+token, "")
	assert.Equal(t, "alice|Alice", rec.Body.String())
}
