package transport

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies bearer tokens for backend requests. Credential
// storage and refresh live outside this module.
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource returns the same token on every call.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource creates a token source around a fixed token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token returns the configured token.
func (s *StaticTokenSource) Token() (string, error) {
	return s.token, nil
}

// TokenExpiry extracts the expiry of a JWT bearer token without verifying
// its signature (verification is the backend's job; we only need the
// deadline to schedule push reconnects). Returns the zero time when the
// token is not a JWT or carries no exp claim.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
