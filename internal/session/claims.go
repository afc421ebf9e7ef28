// Package session holds the signed-in user's tokens and the logout routine.
//
// Tokens are decoded on this side only to read role and expiry for routing
// hints. Decoding does not verify signatures; the backend enforces every
// authorization decision.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sangihetrip/internal/domain"
)

var (
	ErrMissingToken   = errors.New("missing access token")
	ErrMalformedToken = errors.New("malformed access token")
)

// Claims are the access token claims the gateway reads.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Decode reads the claims of token without verifying its signature.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// ID returns the user id, preferring the standard subject claim.
func (c *Claims) ID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// IsAdmin reports whether the token carries the admin role.
func (c *Claims) IsAdmin() bool {
	return strings.EqualFold(c.Role, string(domain.RoleAdmin))
}

// Expired reports whether exp is at or before now. Tokens without exp never
// expire on this side.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// ExpiresIn is the time left before exp, or 0 when there is no exp.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Valid decodes token and reports the claims of an unexpired session.
// Missing, malformed and expired tokens all yield nil.
func Valid(token string, now time.Time) *Claims {
	claims, err := Decode(token)
	if err != nil || claims.Expired(now) {
		return nil
	}
	return claims
}
