package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/config"
	"sangihetrip/internal/middleware"
	"sangihetrip/internal/redis"
	"sangihetrip/internal/service"
	"sangihetrip/internal/session"
	"sangihetrip/internal/tripbuilder"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, subject, role string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@sangihetrip.id",
		"role":  role,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]redis.StoredDraft
}

func (m *memDrafts) SaveDraft(ctx context.Context, d *redis.StoredDraft, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.ID] = *d
	return nil
}

func (m *memDrafts) GetDraft(ctx context.Context, id string) (*redis.StoredDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, redis.ErrNotFound
	}
	return &d, nil
}

func (m *memDrafts) DeleteDraft(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

type memLocks struct {
	mu    sync.Mutex
	locks map[string]string
	seq   int
}

func (m *memLocks) AcquireDraftLock(ctx context.Context, id string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return "", false, nil
	}
	m.seq++
	token := fmt.Sprintf("t%d", m.seq)
	m.locks[id] = token
	return token, true, nil
}

func (m *memLocks) ReleaseDraftLock(ctx context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] == token {
		delete(m.locks, id)
	}
	return nil
}

// testEnv is a gateway wired to a fake backend.
type testEnv struct {
	t       *testing.T
	router  *gin.Engine
	backend *http.ServeMux
	events  []session.Event
	mu      sync.Mutex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{t: t, backend: http.NewServeMux()}
	srv := httptest.NewServer(env.backend)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	client := apiclient.New(srv.URL)
	broker := session.NewBroker()
	broker.Subscribe(func(e session.Event) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.events = append(env.events, e)
	})

	planner := service.NewPlannerService(
		&memDrafts{drafts: map[string]redis.StoredDraft{}},
		&memLocks{locks: map[string]string{}},
		tripbuilder.NewSubmitter(client),
		cfg.Planner,
		nil,
	)

	auth := NewAuthHandler(client)
	catalog := NewCatalogHandler(client)
	plan := NewPlannerHandler(planner)
	admin := NewAdminHandler(client)

	r := gin.New()
	r.Use(middleware.Session(session.CookieConfig{
		AccessName:  cfg.Auth.AccessCookie,
		RefreshName: cfg.Auth.RefreshCookie,
		RefreshTTL:  cfg.Auth.RefreshTTL,
		LoginPath:   cfg.Auth.LoginPath,
	}, broker))
	r.Use(middleware.RouteGuard(middleware.NewGuardConfig(cfg.Auth), nil))

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", auth.Login)
	v1.POST("/auth/register", auth.Register)
	v1.POST("/auth/refresh", auth.Refresh)
	v1.POST("/auth/logout", auth.Logout)
	v1.GET("/me", auth.Me)
	v1.GET("/destinations", catalog.ListDestinations)
	v1.GET("/destinations/:id", catalog.GetDestination)
	v1.POST("/reviews", catalog.CreateReview)
	v1.POST("/planner", plan.Create)
	v1.GET("/planner/:id", plan.Get)
	v1.PATCH("/planner/:id", plan.Update)
	v1.POST("/planner/:id/next", plan.Next)
	v1.POST("/planner/:id/step/:step", plan.GoTo)
	v1.POST("/planner/:id/submit", plan.Submit)
	v1.DELETE("/planner/:id", plan.Discard)
	v1.GET("/admin/:resource", admin.List)
	v1.DELETE("/admin/:resource/:id", admin.Delete)
	v1.POST("/admin/:resource/:id/:action", admin.Moderate)

	env.router = r
	return env
}

func (e *testEnv) eventKinds() []session.EventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	kinds := make([]session.EventKind, 0, len(e.events))
	for _, ev := range e.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// do sends a request to the gateway. token may be empty.
func (e *testEnv) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type envelope[T any] struct {
	Data    T               `json:"data"`
	Meta    *apiclient.Meta `json:"meta"`
	Message string          `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func cookieValue(w *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
