package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"sangihetrip/internal/redis"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, subject, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*redis.CachedResponse
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*redis.CachedResponse{}}
}

func (m *memoryCache) GetResponse(ctx context.Context, key string) (*redis.CachedResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *memoryCache) SetResponse(ctx context.Context, key string, resp *redis.CachedResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *resp
	cp.Body = append([]byte(nil), resp.Body...)
	m.entries[key] = &cp
	return nil
}

func (m *memoryCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
