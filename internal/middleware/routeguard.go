package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sangihetrip/internal/config"
	"sangihetrip/internal/session"
)

// GuardConfig lists the paths the route guard protects.
type GuardConfig struct {
	AccessCookie      string
	LoginPath         string
	HomePath          string
	APIPrefix         string
	AdminPrefixes     []string
	ProtectedPrefixes []string
	GuestOnlyPaths    []string
}

// NewGuardConfig builds the guard configuration from the auth settings.
func NewGuardConfig(cfg config.AuthConfig) GuardConfig {
	return GuardConfig{
		AccessCookie:      cfg.AccessCookie,
		LoginPath:         cfg.LoginPath,
		HomePath:          cfg.HomePath,
		APIPrefix:         "/api/",
		AdminPrefixes:     cfg.AdminPrefixes,
		ProtectedPrefixes: cfg.ProtectedPrefixes,
		GuestOnlyPaths:    cfg.GuestOnlyPaths,
	}
}

// Verdict is the route guard's decision for one request.
type Verdict int

const (
	Allow Verdict = iota
	// NeedLogin sends anonymous users to the login page.
	NeedLogin
	// Forbidden sends signed-in users without the admin role home.
	Forbidden
	// GuestOnly sends signed-in users away from login and register.
	GuestOnly
)

// Decide classifies path for the given claims. Nil claims mean anonymous.
func (g GuardConfig) Decide(path string, claims *session.Claims) Verdict {
	switch {
	case matchesPrefix(path, g.AdminPrefixes):
		if claims == nil {
			return NeedLogin
		}
		if !claims.IsAdmin() {
			return Forbidden
		}
	case matchesPrefix(path, g.ProtectedPrefixes):
		if claims == nil {
			return NeedLogin
		}
	case matchesExact(path, g.GuestOnlyPaths):
		if claims != nil {
			return GuestOnly
		}
	}
	return Allow
}

// RouteGuard decodes the access token cookie and enforces GuardConfig.
// Missing, undecodable and expired tokens count as anonymous. Page requests
// are redirected; API requests get a 401 or 403 JSON body. The decoded claims
// are available to handlers through ClaimsFrom.
func RouteGuard(g GuardConfig, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		var claims *session.Claims
		if token, err := c.Cookie(g.AccessCookie); err == nil {
			claims = session.Valid(token, now())
		}
		if claims != nil {
			c.Set(claimsKey, claims)
		}

		path := c.Request.URL.Path
		api := strings.HasPrefix(path, g.APIPrefix)

		switch g.Decide(path, claims) {
		case NeedLogin:
			if api {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message":  "authentication required",
					"code":     "UNAUTHORIZED",
					"redirect": session.LoginURL(g.LoginPath, refererPath(c.Request)),
				})
				return
			}
			c.Redirect(http.StatusFound, session.LoginURL(g.LoginPath, c.Request.URL.RequestURI()))
			c.Abort()
		case Forbidden:
			if api {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"message": "admin access required",
					"code":    "FORBIDDEN",
				})
				return
			}
			c.Redirect(http.StatusFound, g.HomePath)
			c.Abort()
		case GuestOnly:
			c.Redirect(http.StatusFound, g.HomePath)
			c.Abort()
		default:
			c.Next()
		}
	}
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func matchesExact(path string, paths []string) bool {
	path = strings.TrimRight(path, "/")
	for _, p := range paths {
		if path == strings.TrimRight(p, "/") {
			return true
		}
	}
	return false
}

func refererPath(r *http.Request) string {
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			return u.RequestURI()
		}
	}
	return "/"
}
