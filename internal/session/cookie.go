package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig describes the session cookies of the gateway.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
	RefreshTTL  time.Duration
	LoginPath   string
	APIPrefix   string
}

// CookieSession is the session of one HTTP request, backed by the access and
// refresh token cookies.
type CookieSession struct {
	c        *gin.Context
	cfg      CookieConfig
	broker   *Broker
	now      func() time.Time
	redirect string
}

// NewCookieSession wraps the cookies of c.
func NewCookieSession(c *gin.Context, cfg CookieConfig, broker *Broker) *CookieSession {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/"
	}
	return &CookieSession{c: c, cfg: cfg, broker: broker, now: time.Now}
}

// AccessToken implements apiclient.Session.
func (s *CookieSession) AccessToken() string {
	v, err := s.c.Cookie(s.cfg.AccessName)
	if err != nil {
		return ""
	}
	return v
}

// RefreshToken returns the refresh token cookie.
func (s *CookieSession) RefreshToken() string {
	v, err := s.c.Cookie(s.cfg.RefreshName)
	if err != nil {
		return ""
	}
	return v
}

// Claims decodes the access token cookie.
func (s *CookieSession) Claims() (*Claims, error) {
	return Decode(s.AccessToken())
}

// SetTokens writes both cookies and publishes a login event. The access
// cookie lives as long as the token's exp claim.
func (s *CookieSession) SetTokens(access, refresh string) {
	accessAge := 0
	subject := ""
	if claims, err := Decode(access); err == nil {
		subject = claims.ID()
		accessAge = int(claims.ExpiresIn(s.now()).Seconds())
	}

	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.cfg.AccessName, access, accessAge, "/", s.cfg.Domain, s.cfg.Secure, true)
	if refresh != "" {
		s.c.SetCookie(s.cfg.RefreshName, refresh, int(s.cfg.RefreshTTL.Seconds()), "/", s.cfg.Domain, s.cfg.Secure, true)
	}
	s.broker.Publish(Event{Kind: EventLogin, Subject: subject, At: s.now()})
}

// Logout clears the cookies and publishes a logout event. It returns the
// login page URL.
func (s *CookieSession) Logout() string {
	subject := s.subject()
	s.clear()
	s.broker.Publish(Event{Kind: EventLogout, Subject: subject, At: s.now()})
	return s.cfg.LoginPath
}

// Expire implements apiclient.Session: it clears the cookies, publishes an
// expired event and records the login redirect. Only the first call acts.
func (s *CookieSession) Expire(ctx context.Context) {
	if s.redirect != "" {
		return
	}
	subject := s.subject()
	s.clear()
	s.redirect = LoginURL(s.cfg.LoginPath, s.currentPath())
	s.broker.Publish(Event{Kind: EventExpired, Subject: subject, At: s.now()})
}

// Redirect is the login URL recorded by Expire, or "".
func (s *CookieSession) Redirect() string {
	return s.redirect
}

// LoginURL is the login page with next set to the page the user is on.
func (s *CookieSession) LoginURL() string {
	return LoginURL(s.cfg.LoginPath, s.currentPath())
}

func (s *CookieSession) subject() string {
	if claims, err := s.Claims(); err == nil {
		return claims.ID()
	}
	return ""
}

func (s *CookieSession) clear() {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.cfg.AccessName, "", -1, "/", s.cfg.Domain, s.cfg.Secure, true)
	s.c.SetCookie(s.cfg.RefreshName, "", -1, "/", s.cfg.Domain, s.cfg.Secure, true)
}

// currentPath is the page the browser is on. API calls are made from a page,
// so for them the referring page is used.
func (s *CookieSession) currentPath() string {
	req := s.c.Request
	if !strings.HasPrefix(req.URL.Path, s.cfg.APIPrefix) {
		return req.URL.RequestURI()
	}
	if ref := req.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			return u.RequestURI()
		}
	}
	return "/"
}
