// Package apiclient is the REST client for the SangiheTrip backend API.
//
// Every call goes through Client.Do, which attaches the bearer token according
// to the request's AuthMode, unwraps the {data, meta, message} envelope and
// turns non-2xx answers into *APIError. There are no retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodySize caps how much of a backend response is read.
const maxBodySize = 8 << 20

// AuthMode controls bearer token handling for one request.
type AuthMode int

const (
	// AuthNone never sends a token.
	AuthNone AuthMode = iota
	// AuthOptional sends the token when one exists.
	AuthOptional
	// AuthRequired fails with ErrNoToken when there is no token, and runs the
	// session's expiry routine on 401.
	AuthRequired
)

// Session supplies the access token and the logout routine run when the
// backend rejects it.
type Session interface {
	AccessToken() string
	Expire(ctx context.Context)
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Auth   AuthMode
}

// Client talks to the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithMetrics enables request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs req. When out is non-nil and the response carries data, the
// data is decoded into out. sess may be nil for AuthNone requests.
func (c *Client) Do(ctx context.Context, sess Session, req Request, out any) (*Envelope, error) {
	var token string
	if sess != nil && req.Auth != AuthNone {
		token = sess.AccessToken()
	}
	if req.Auth == AuthRequired && token == "" {
		return nil, ErrNoToken
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.url(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observe(method, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.metrics.observe(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseError(resp.StatusCode, raw)
		c.logger.Debug("backend request failed",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		if resp.StatusCode == http.StatusUnauthorized && req.Auth == AuthRequired && sess != nil {
			sess.Expire(ctx)
		}
		return nil, apiErr
	}

	env := &Envelope{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
	}
	return env, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
