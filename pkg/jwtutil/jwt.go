package jwtutil

import (
	"errors"
	"time"

	"tenant-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// Typed verification errors. The auth middleware maps all four to 401
// with distinct messages.
var (
	ErrMissingToken   = errors.New("missing authorization token")
	ErrBadScheme      = errors.New("invalid authorization format, expected Bearer token")
	ErrExpiredToken   = errors.New("token expired")
	ErrMalformedToken = errors.New("invalid token")
)

// Claims represents the JWT claims for an organization admin.
type Claims struct {
	OrgID string `json:"org_id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AdminID returns the admin id carried in the subject claim.
func (c *Claims) AdminID() string {
	return c.Subject
}

// JWT signs and verifies admin session tokens. Constructed once at
// startup from config and injected where needed.
type JWT struct {
	secret []byte
	ttl    time.Duration
}

func New(cfg *config.JWTConfig) *JWT {
	return &JWT{
		secret: []byte(cfg.Secret),
		ttl:    time.Duration(cfg.ExpSeconds) * time.Second,
	}
}

// TTL returns the configured token lifetime.
func (j *JWT) TTL() time.Duration {
	return j.ttl
}

// Issue creates a signed token for the admin. The returned expiry is
// issue time + TTL.
func (j *JWT) Issue(adminID, orgID, email, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.ttl)

	claims := Claims{
		OrgID: orgID,
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates the signature and expiry and returns the claims.
// A token is expired once now >= expires_at.
func (j *JWT) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
