package middleware

import (
	"github.com/gin-gonic/gin"

	"sangihetrip/internal/session"
)

const (
	sessionKey = "session"
	claimsKey  = "session.claims"
)

// Session attaches a cookie-backed session to every request.
func Session(cfg session.CookieConfig, broker *session.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, session.NewCookieSession(c, cfg, broker))
		c.Next()
	}
}

// SessionFrom returns the request's session, or nil when the Session
// middleware did not run.
func SessionFrom(c *gin.Context) *session.CookieSession {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.CookieSession); ok {
			return s
		}
	}
	return nil
}

// ClaimsFrom returns the claims of a signed-in, unexpired user, or nil.
func ClaimsFrom(c *gin.Context) *session.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*session.Claims); ok {
			return claims
		}
	}
	return nil
}
