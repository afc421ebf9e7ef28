package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/domain"
	"sangihetrip/internal/listing"
)

// AdminHandler serves the admin console's collection endpoints.
type AdminHandler struct {
	backend  Backend
	pageSize int
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(backend Backend) *AdminHandler {
	return &AdminHandler{backend: backend, pageSize: listing.DefaultPageSize}
}

// List handles GET /api/v1/admin/:resource
func (h *AdminHandler) List(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	params := listing.ParseParams(c.Request.URL.Query(), h.pageSize)
	page, err := listing.FetchPage[json.RawMessage](
		c.Request.Context(), h.backend, sessionOf(c), "/admin/"+resource, params.Query(nil),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page.Items, page.Meta)
}

// Delete handles DELETE /api/v1/admin/:resource/:id
func (h *AdminHandler) Delete(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	_, err := h.backend.Do(c.Request.Context(), sessionOf(c), apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/admin/" + resource + "/" + url.PathEscape(c.Param("id")),
		Auth:   apiclient.AuthRequired,
	}, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Moderate handles POST /api/v1/admin/:resource/:id/:action
func (h *AdminHandler) Moderate(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}
	action := c.Param("action")
	if !domain.AllowsAction(resource, action) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "unsupported action " + action + " for " + resource,
			Code:    "BAD_REQUEST",
		})
		return
	}

	var updated json.RawMessage
	env, err := h.backend.Do(c.Request.Context(), sessionOf(c), apiclient.Request{
		Method: http.MethodPatch,
		Path:   "/admin/" + resource + "/" + url.PathEscape(c.Param("id")) + "/" + action,
		Auth:   apiclient.AuthRequired,
	}, &updated)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, updated, env.Message)
}

func (h *AdminHandler) resource(c *gin.Context) (string, bool) {
	resource := c.Param("resource")
	if !domain.IsAdminResource(resource) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "unknown resource " + resource, Code: "NOT_FOUND"})
		return "", false
	}
	return resource, true
}
