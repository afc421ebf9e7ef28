package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCookieContext(method, target string, cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	for _, ck := range cookies {
		c.Request.AddCookie(ck)
	}
	return c, w
}

var testCookieConfig = CookieConfig{
	AccessName:  "access_token",
	RefreshName: "refresh_token",
	RefreshTTL:  24 * time.Hour,
	LoginPath:   "/login",
}

func TestCookieSession_ReadsTokens(t *testing.T) {
	c, _ := newCookieContext(http.MethodGet, "/api/v1/me",
		&http.Cookie{Name: "access_token", Value: "a"},
		&http.Cookie{Name: "refresh_token", Value: "r"},
	)
	sess := NewCookieSession(c, testCookieConfig, nil)

	assert.Equal(t, "a", sess.AccessToken())
	assert.Equal(t, "r", sess.RefreshToken())
}

func TestCookieSession_SetTokensWritesCookies(t *testing.T) {
	c, w := newCookieContext(http.MethodPost, "/api/v1/auth/login")
	broker := NewBroker()
	var got []Event
	broker.Subscribe(func(e Event) { got = append(got, e) })

	sess := NewCookieSession(c, testCookieConfig, broker)
	sess.SetTokens(signToken(t, "u-9", "user", time.Now().Add(time.Hour)), "refresh")

	header := strings.Join(w.Header().Values("Set-Cookie"), "\n")
	assert.Contains(t, header, "access_token=")
	assert.Contains(t, header, "refresh_token=refresh")
	assert.Contains(t, header, "HttpOnly")
	require.Len(t, got, 1)
	assert.Equal(t, EventLogin, got[0].Kind)
	assert.Equal(t, "u-9", got[0].Subject)
}

func TestCookieSession_ExpireOnceWithReferer(t *testing.T) {
	token := signToken(t, "u-3", "user", time.Now().Add(time.Hour))
	c, w := newCookieContext(http.MethodPost, "/api/v1/planner/abc/submit",
		&http.Cookie{Name: "access_token", Value: token},
	)
	c.Request.Header.Set("Referer", "https://sangihetrip.id/planner?draft=abc")

	broker := NewBroker()
	var expired int
	broker.Subscribe(func(e Event) {
		if e.Kind == EventExpired {
			expired++
		}
	})

	sess := NewCookieSession(c, testCookieConfig, broker)
	sess.Expire(context.Background())
	sess.Expire(context.Background())

	assert.Equal(t, "/login?next=%2Fplanner%3Fdraft%3Dabc", sess.Redirect())
	assert.Equal(t, 1, expired)
	header := strings.Join(w.Header().Values("Set-Cookie"), "\n")
	assert.Contains(t, header, "access_token=;")
	assert.Contains(t, header, "Max-Age=0")
}

func TestCookieSession_ExpireOnPagePath(t *testing.T) {
	c, _ := newCookieContext(http.MethodGet, "/my-trips?tab=saved")
	sess := NewCookieSession(c, testCookieConfig, nil)

	sess.Expire(context.Background())

	assert.Equal(t, "/login?next=%2Fmy-trips%3Ftab%3Dsaved", sess.Redirect())
}

func TestCookieSession_Logout(t *testing.T) {
	c, w := newCookieContext(http.MethodPost, "/api/v1/auth/logout",
		&http.Cookie{Name: "access_token", Value: "x"},
	)
	sess := NewCookieSession(c, testCookieConfig, nil)

	assert.Equal(t, "/login", sess.Logout())
	assert.Len(t, w.Header().Values("Set-Cookie"), 2)
}
