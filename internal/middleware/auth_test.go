package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tenant-service/pkg/config"
	"tenant-service/pkg/jwtutil"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter(tokens *jwtutil.JWT) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		claims := ClaimsFromContext(c)
		return c.JSON(http.StatusOK, echo.Map{
			"admin_id": claims.AdminID(),
			"org_id":   claims.OrgID,
		})
	}, Auth(tokens))
	return e
}

func doRequest(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthValidToken(t *testing.T) {
	tokens := jwtutil.New(&config.JWTConfig{Secret: "test-secret", ExpSeconds: 3600})
	e := setupAuthRouter(tokens)

	token, _, err := tokens.Issue("admin-1", "org-1", "a@x.com", "owner")
	require.NoError(t, err)

	rec := doRequest(e, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin-1")
	assert.Contains(t, rec.Body.String(), "org-1")
}

func TestAuthMissingHeader(t *testing.T) {
	tokens := jwtutil.New(&config.JWTConfig{Secret: "test-secret", ExpSeconds: 3600})
	e := setupAuthRouter(tokens)

	rec := doRequest(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization token")
}

func TestAuthBadScheme(t *testing.T) {
	tokens := jwtutil.New(&config.JWTConfig{Secret: "test-secret", ExpSeconds: 3600})
	e := setupAuthRouter(tokens)

	for _, header := range []string{"Basic abc123", "Bearer", "Bearer a b"} {
		rec := doRequest(e, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), "Bearer token", header)
	}
}

func TestAuthMalformedToken(t *testing.T) {
	tokens := jwtutil.New(&config.JWTConfig{Secret: "test-secret", ExpSeconds: 3600})
	e := setupAuthRouter(tokens)

	rec := doRequest(e, "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestAuthExpiredToken(t *testing.T) {
	tokens := jwtutil.New(&config.JWTConfig{Secret: "test-secret", ExpSeconds: 3600})
	e := setupAuthRouter(tokens)

	token, expiresAt, err := tokens.Issue("admin-1", "org-1", "a@x.com", "owner")
	require.NoError(t, err)

	jwt.TimeFunc = func() time.Time { return expiresAt.Add(time.Second) }
	defer func() { jwt.TimeFunc = time.Now }()

	rec := doRequest(e, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
}
