package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	token   string
	expired int32
}

func (s *fakeSession) AccessToken() string { return s.token }

func (s *fakeSession) Expire(ctx context.Context) { atomic.AddInt32(&s.expired, 1) }

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDo_UnwrapsEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/destinations", r.URL.Path)
		assert.Equal(t, "beach", r.URL.Query().Get("search"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"d1"},{"id":"d2"}],"meta":{"page":2,"per_page":10,"total":35},"message":"ok"}`))
	})

	client := New(srv.URL + "/api/")
	var items []struct {
		ID string `json:"id"`
	}
	env, err := client.Do(context.Background(), nil, Request{
		Path:  "/destinations",
		Query: url.Values{"search": {"beach"}},
	}, &items)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "d2", items[1].ID)
	assert.Equal(t, "ok", env.Message)
	require.NotNil(t, env.Meta)
	assert.Equal(t, Meta{Page: 2, Limit: 10, TotalItems: 35, TotalPages: 4}, *env.Meta)
}

func TestDo_BearerTokenByAuthMode(t *testing.T) {
	var lastAuth atomic.Value
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":null}`))
	})
	client := New(srv.URL)
	sess := &fakeSession{token: "tok-123"}

	tests := []struct {
		name string
		mode AuthMode
		sess *fakeSession
		want string
	}{
		{"none never sends", AuthNone, sess, ""},
		{"optional with token", AuthOptional, sess, "Bearer tok-123"},
		{"optional without token", AuthOptional, &fakeSession{}, ""},
		{"required with token", AuthRequired, sess, "Bearer tok-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Do(context.Background(), tt.sess, Request{Path: "/me", Auth: tt.mode}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lastAuth.Load())
		})
	}
}

func TestDo_RequiredWithoutTokenFailsFast(t *testing.T) {
	srv, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := New(srv.URL)

	_, err := client.Do(context.Background(), &fakeSession{}, Request{Method: http.MethodPost, Path: "/trips", Auth: AuthRequired}, nil)
	require.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, atomic.LoadInt32(hits), "no request may reach the network")

	_, err = client.Do(context.Background(), nil, Request{Path: "/trips", Auth: AuthRequired}, nil)
	require.ErrorIs(t, err, ErrNoToken)
}

func TestDo_UnauthorizedExpiresSessionOnce(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired","code":"AUTH_EXPIRED"}`))
	})
	client := New(srv.URL)

	sess := &fakeSession{token: "stale"}
	_, err := client.Do(context.Background(), sess, Request{Path: "/me", Auth: AuthRequired}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "AUTH_EXPIRED", apiErr.Code)
	assert.Equal(t, "token expired", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sess.expired))

	optional := &fakeSession{token: "stale"}
	_, err = client.Do(context.Background(), optional, Request{Path: "/destinations", Auth: AuthOptional}, nil)
	require.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Zero(t, atomic.LoadInt32(&optional.expired), "optional calls do not log out")
}

func TestDo_ErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
		wantDetails []string
	}{
		{"string message", 400, `{"message":"name is required"}`, "name is required", "", nil},
		{"array message", 422, `{"message":["name is required","endDate must be after startDate"]}`, "name is required, endDate must be after startDate", "", nil},
		{"error field", 403, `{"error":"Forbidden","code":403}`, "Forbidden", "403", nil},
		{"errors list", 422, `{"message":"invalid","errors":["a",{"field":"rating","message":"too high"}]}`, "invalid", "", []string{"a", "rating: too high"}},
		{"not json", 502, `<html>bad gateway</html>`, "Request failed with status 502", "", nil},
		{"empty", 500, ``, "Request failed with status 500", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := New(srv.URL).Do(context.Background(), nil, Request{Path: "/x"}, nil)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantDetails, apiErr.Details)
			assert.Equal(t, tt.wantMessage, Message(err))
		})
	}
}

func TestDo_SendsJSONBody(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Pantai Kahona", got["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"t-1"}}`))
	})

	var created struct {
		ID string `json:"id"`
	}
	_, err := New(srv.URL).Do(context.Background(), &fakeSession{token: "t"}, Request{
		Method: http.MethodPost,
		Path:   "trips",
		Body:   map[string]string{"name": "Pantai Kahona"},
		Auth:   AuthRequired,
	}, &created)
	require.NoError(t, err)
	assert.Equal(t, "t-1", created.ID)
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL).Do(context.Background(), nil, Request{Path: "/x"}, nil)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, Message(err), "request failed: ")
}

func TestDo_RecordsMetrics(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	reg := prometheus.NewRegistry()
	metrics := NewMetrics("test", reg)
	client := New(srv.URL, WithMetrics(metrics))

	_, _ = client.Do(context.Background(), nil, Request{Path: "/ok"}, nil)
	_, _ = client.Do(context.Background(), nil, Request{Path: "/ok"}, nil)
	_, _ = client.Do(context.Background(), nil, Request{Path: "/missing"}, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "404")))
}
