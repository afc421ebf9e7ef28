package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/domain"
	"sangihetrip/internal/listing"
	"sangihetrip/internal/middleware"
	"sangihetrip/internal/session"
)

// Backend is the REST client the handlers forward to.
type Backend = listing.Doer

// AuthHandler handles sign-in, registration and session cookies.
type AuthHandler struct {
	backend Backend
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(backend Backend) *AuthHandler {
	return &AuthHandler{backend: backend}
}

// LoginRequest is the HTTP request body for sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the HTTP request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// SessionResponse describes the signed-in user. Tokens stay in HttpOnly
// cookies and are never returned in the body.
type SessionResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email,omitempty"`
	Name      string          `json:"name,omitempty"`
	Role      string          `json:"role,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Account   *domain.Account `json:"account,omitempty"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.authenticate(c, "/auth/login", req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, resp)
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.authenticate(c, "/auth/register", req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, resp)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	refresh := ""
	if sess != nil {
		refresh = sess.RefreshToken()
	}
	if refresh == "" {
		respondError(c, apiclient.ErrNoToken)
		return
	}

	resp, err := h.authenticate(c, "/auth/refresh", gin.H{"refreshToken": refresh})
	if err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			sess.Expire(c.Request.Context())
		}
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	redirect := "/login"
	if sess := middleware.SessionFrom(c); sess != nil {
		redirect = sess.Logout()
	}
	respondMessage(c, http.StatusOK, gin.H{"redirect": redirect}, "signed out")
}

// Me handles GET /api/v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, apiclient.ErrNoToken)
		return
	}
	respondJSON(c, http.StatusOK, sessionResponse(claims, nil))
}

// authenticate posts body to a token-issuing endpoint and stores the tokens
// in the session cookies.
func (h *AuthHandler) authenticate(c *gin.Context, path string, body any) (*SessionResponse, error) {
	var raw json.RawMessage
	_, err := h.backend.Do(c.Request.Context(), nil, apiclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
		Auth:   apiclient.AuthNone,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var tokens domain.AuthTokens
	var withUser struct {
		User *domain.Account `json:"user"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tokens); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &withUser); err != nil {
			return nil, err
		}
	}
	// Registration may not sign the user in.
	if tokens.AccessToken == "" {
		return &SessionResponse{Account: withUser.User}, nil
	}

	if sess := middleware.SessionFrom(c); sess != nil {
		sess.SetTokens(tokens.AccessToken, tokens.RefreshToken)
	}
	claims, err := session.Decode(tokens.AccessToken)
	if err != nil {
		return &SessionResponse{Account: withUser.User}, nil
	}
	return sessionResponse(claims, withUser.User), nil
}

func sessionResponse(claims *session.Claims, account *domain.Account) *SessionResponse {
	resp := &SessionResponse{
		ID:      claims.ID(),
		Email:   claims.Email,
		Role:    claims.Role,
		Account: account,
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		resp.ExpiresAt = &t
	}
	if account != nil {
		resp.Name = account.Name
		if resp.Email == "" {
			resp.Email = account.Email
		}
		if resp.ID == "" {
			resp.ID = account.ID
		}
	}
	return resp
}
