package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// FrontendHandler serves the built single-page app. Unknown paths fall back
// to index.html so client-side routes load; unknown API paths get a JSON 404.
type FrontendHandler struct {
	root string
}

// NewFrontendHandler serves files from root. An empty root serves nothing.
func NewFrontendHandler(root string) *FrontendHandler {
	return &FrontendHandler{root: root}
}

// Serve handles every route not matched by the API.
func (h *FrontendHandler) Serve(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || h.root == "" ||
		(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "not found", Code: "NOT_FOUND"})
		return
	}

	name := filepath.Join(h.root, filepath.FromSlash(filepath.Clean("/"+path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		c.File(name)
		return
	}
	c.File(filepath.Join(h.root, "index.html"))
}
