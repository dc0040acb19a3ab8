package middleware

import (
	"errors"
	"net/http"
	"strings"

	"tenant-service/pkg/jwtutil"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClaimsKey is the echo context key holding the verified token claims.
const ClaimsKey = "claims"

// Auth validates the bearer token from the Authorization header and
// stores the verified claims in the request context. Each failure mode
// gets its own 401 message so callers can tell an expired token from a
// malformed one.
func Auth(tokens *jwtutil.JWT) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Error("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": jwtutil.ErrMissingToken.Error()})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Error("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": jwtutil.ErrBadScheme.Error()})
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				log.Error("Token verification failed", zap.Error(err))
				if errors.Is(err, jwtutil.ErrExpiredToken) {
					prometheus.RecordAuthError("expired_token")
				} else {
					prometheus.RecordAuthError("invalid_token")
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by Auth, or nil when the
// route is unauthenticated.
func ClaimsFromContext(c echo.Context) *jwtutil.Claims {
	claims, _ := c.Get(ClaimsKey).(*jwtutil.Claims)
	return claims
}
