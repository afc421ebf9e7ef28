package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"sangihetrip/internal/apiclient"
)

// CatalogHandler serves destinations, articles and reviews. Listing calls
// pass the query string through to the backend unchanged.
type CatalogHandler struct {
	backend Backend
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(backend Backend) *CatalogHandler {
	return &CatalogHandler{backend: backend}
}

// CreateReviewRequest is the HTTP request body for a review.
type CreateReviewRequest struct {
	DestinationID string `json:"destinationId" binding:"required"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comment       string `json:"comment" binding:"required"`
}

// ListDestinations handles GET /api/v1/destinations
func (h *CatalogHandler) ListDestinations(c *gin.Context) {
	h.forward(c, "/destinations", c.Request.URL.Query())
}

// GetDestination handles GET /api/v1/destinations/:id
func (h *CatalogHandler) GetDestination(c *gin.Context) {
	h.forward(c, "/destinations/"+url.PathEscape(c.Param("id")), nil)
}

// DestinationReviews handles GET /api/v1/destinations/:id/reviews
func (h *CatalogHandler) DestinationReviews(c *gin.Context) {
	h.forward(c, "/destinations/"+url.PathEscape(c.Param("id"))+"/reviews", c.Request.URL.Query())
}

// ListArticles handles GET /api/v1/articles
func (h *CatalogHandler) ListArticles(c *gin.Context) {
	h.forward(c, "/articles", c.Request.URL.Query())
}

// GetArticle handles GET /api/v1/articles/:id
func (h *CatalogHandler) GetArticle(c *gin.Context) {
	h.forward(c, "/articles/"+url.PathEscape(c.Param("id")), nil)
}

// CreateReview handles POST /api/v1/reviews
func (h *CatalogHandler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	var created json.RawMessage
	env, err := h.backend.Do(c.Request.Context(), sessionOf(c), apiclient.Request{
		Method: http.MethodPost,
		Path:   "/reviews",
		Body:   req,
		Auth:   apiclient.AuthRequired,
	}, &created)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, created, env.Message)
}

// forward performs an auth-optional GET and relays the envelope.
func (h *CatalogHandler) forward(c *gin.Context, path string, query url.Values) {
	var data json.RawMessage
	env, err := h.backend.Do(c.Request.Context(), sessionOf(c), apiclient.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Auth:   apiclient.AuthOptional,
	}, &data)
	if err != nil {
		respondError(c, err)
		return
	}
	if data == nil {
		data = json.RawMessage("null")
	}
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: env.Meta, Message: env.Message})
}
