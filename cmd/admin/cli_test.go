package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every request and answers from its mux.
type fakeBackend struct {
	mux *http.ServeMux
	url string

	mu       sync.Mutex
	requests []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	f.url = srv.URL
	return f
}

func (f *fakeBackend) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func adminToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin-1",
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv(tokenEnv, "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func usersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body := `{"data":[{"id":"u1","name":"Ani","role":"admin"},{"id":"u2","email":"budi@sangihetrip.id","status":"banned"}],"meta":{"page":` +
		q.Get("page") + `,"limit":10,"total":12}}`
	respond(w, http.StatusOK, body)
}

func TestList(t *testing.T) {
	backend := newFakeBackend(t)
	backend.mux.HandleFunc("GET /admin/users", usersHandler)
	token := adminToken(t, "admin", time.Hour)

	res := run(t, "", "list", "users", "--backend", backend.url, "--token", token,
		"--search", "ani", "--filter", "role=admin", "--page", "2")

	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "ID")
	assert.Contains(t, res.stdout, "Ani")
	assert.Contains(t, res.stdout, "budi@sangihetrip.id")
	assert.Contains(t, res.stdout, "banned")
	assert.Contains(t, res.stdout, "Page 2 of 2, 12 total.")
	assert.Equal(t, []string{"GET /admin/users?limit=10&page=2&role=admin&search=ani"}, backend.recorded())
}

func TestList_JSON(t *testing.T) {
	backend := newFakeBackend(t)
	backend.mux.HandleFunc("GET /admin/users", usersHandler)

	res := run(t, "", "list", "users", "--json", "--backend", backend.url, "--token", adminToken(t, "admin", time.Hour))

	require.NoError(t, res.err, res.stderr)
	var page struct {
		Items []map[string]any `json:"items"`
		Meta  struct {
			TotalItems int `json:"totalItems"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 12, page.Meta.TotalItems)
}

func TestList_Rejections(t *testing.T) {
	backend := newFakeBackend(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no token", []string{"list", "users"}, "pass --token"},
		{"not admin", []string{"list", "users", "--token", adminToken(t, "user", time.Hour)}, "admin role"},
		{"expired", []string{"list", "users", "--token", adminToken(t, "admin", -time.Minute)}, "session ended"},
		{"unknown resource", []string{"list", "payments", "--token", adminToken(t, "admin", time.Hour)}, "unknown resource"},
		{"bad filter", []string{"list", "users", "--filter", "role", "--token", adminToken(t, "admin", time.Hour)}, "invalid filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, "", append(tt.args, "--backend", backend.url)...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
	assert.Empty(t, backend.recorded())
}

func TestList_TokenFromEnv(t *testing.T) {
	backend := newFakeBackend(t)
	backend.mux.HandleFunc("GET /admin/users", usersHandler)
	token := adminToken(t, "admin", time.Hour)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv(tokenEnv, token)
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetArgs([]string{"list", "users", "--backend", backend.url})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Ani")
}

func TestList_ExpiredOnBackend(t *testing.T) {
	backend := newFakeBackend(t)
	backend.mux.HandleFunc("GET /admin/users", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusUnauthorized, `{"message":"jwt expired"}`)
	})

	res := run(t, "", "list", "users", "--backend", backend.url, "--token", adminToken(t, "admin", time.Hour))

	require.ErrorIs(t, res.err, errSessionEnded)
	assert.Contains(t, res.stderr, "Sign in again at /login?next=%2Fadmin%2Fusers")
}

func TestDelete(t *testing.T) {
	backend := newFakeBackend(t)
	backend.mux.HandleFunc("DELETE /admin/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	token := adminToken(t, "admin", time.Hour)

	res := run(t, "n\n", "delete", "reviews", "r1", "--backend", backend.url, "--token", token)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Delete reviews/r1? This cannot be undone. [y/N]")
	assert.Contains(t, res.stdout, "Cancelled.")
	assert.Empty(t, backend.recorded())

	res = run(t, "yes\n", "delete", "reviews", "r1", "--backend", backend.url, "--token", token)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Deleted reviews/r1.")

	res = run(t, "", "delete", "reviews", "r 2", "--yes", "--backend", backend.url, "--token", token)
	require.NoError(t, res.err)

	assert.Equal(t, []string{"DELETE /admin/reviews/r1", "DELETE /admin/reviews/r%202"}, backend.recorded())
}

func TestModerate(t *testing.T) {
	backend := newFakeBackend(t)
	backend.mux.HandleFunc("PATCH /admin/reviews/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"data":{"id":"r1","status":"approved"},"message":"review approved"}`)
	})
	backend.mux.HandleFunc("PATCH /admin/users/{id}/ban", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusForbidden, `{"message":"cannot ban another admin"}`)
	})
	token := adminToken(t, "admin", time.Hour)

	res := run(t, "", "moderate", "reviews", "r1", "approve", "--backend", backend.url, "--token", token)
	require.NoError(t, res.err)
	assert.Equal(t, "review approved\n", res.stdout)

	res = run(t, "", "moderate", "reviews", "r1", "ban", "--backend", backend.url, "--token", token)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "expected one of approve, reject")

	res = run(t, "", "moderate", "trips", "t1", "publish", "--backend", backend.url, "--token", token)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "trips cannot be moderated")

	res = run(t, "", "moderate", "users", "u9", "ban", "--backend", backend.url, "--token", token)
	require.Error(t, res.err)
	assert.Equal(t, "ban users/u9: cannot ban another admin", res.err.Error())

	assert.Equal(t, []string{"PATCH /admin/reviews/r1/approve", "PATCH /admin/users/u9/ban"}, backend.recorded())
}

func TestConsole(t *testing.T) {
	backend := newFakeBackend(t)
	backend.mux.HandleFunc("GET /admin/users", usersHandler)
	backend.mux.HandleFunc("DELETE /admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	script := strings.Join([]string{
		"filter role=admin",
		"page 2",
		"page zero",
		"delete u1",
		"y",
		"delete u2",
		"n",
		"search ani",
		"frobnicate",
		"quit",
	}, "\n") + "\n"

	res := run(t, script, "console", "users", "--debounce", "5ms",
		"--backend", backend.url, "--token", adminToken(t, "admin", time.Hour))

	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Admin console for users.")
	assert.Contains(t, res.stdout, "usage: page <n>")
	assert.Contains(t, res.stdout, "Deleted u1.")
	assert.Contains(t, res.stdout, "Delete u2? This cannot be undone. [y/N]")
	assert.Contains(t, res.stdout, `unknown command "frobnicate"`)
	assert.Equal(t, []string{
		"GET /admin/users?limit=10&page=1",
		"GET /admin/users?limit=10&page=1&role=admin",
		"GET /admin/users?limit=10&page=2&role=admin",
		"DELETE /admin/users/u1",
		"GET /admin/users?limit=10&page=2&role=admin",
		"GET /admin/users?limit=10&page=1&role=admin&search=ani",
	}, backend.recorded())
}

func TestConsole_SessionExpires(t *testing.T) {
	backend := newFakeBackend(t)
	calls := 0
	backend.mux.HandleFunc("GET /admin/users", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			respond(w, http.StatusUnauthorized, `{"message":"jwt expired"}`)
			return
		}
		usersHandler(w, r)
	})

	res := run(t, "refresh\nrefresh\n", "console", "users",
		"--backend", backend.url, "--token", adminToken(t, "admin", time.Hour))

	require.ErrorIs(t, res.err, errSessionEnded)
	assert.Contains(t, res.stdout, "error: jwt expired")
	assert.Equal(t, 1, strings.Count(res.stderr, "Sign in again at /login?next=%2Fadmin%2Fusers"))
	assert.Len(t, backend.recorded(), 2, "the second refresh never runs")
}
