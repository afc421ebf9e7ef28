package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sangihetrip/internal/middleware"
	"sangihetrip/internal/service"
	"sangihetrip/internal/tripbuilder"
)

// PlannerHandler handles HTTP requests for trip-builder drafts.
type PlannerHandler struct {
	plannerService *service.PlannerService
}

// NewPlannerHandler creates a new PlannerHandler.
func NewPlannerHandler(plannerService *service.PlannerService) *PlannerHandler {
	return &PlannerHandler{plannerService: plannerService}
}

// Create handles POST /api/v1/planner
func (h *PlannerHandler) Create(c *gin.Context) {
	view, err := h.plannerService.Create(c.Request.Context(), owner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, view)
}

// Get handles GET /api/v1/planner/:id
func (h *PlannerHandler) Get(c *gin.Context) {
	view, err := h.plannerService.Get(c.Request.Context(), owner(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, view)
}

// Update handles PATCH /api/v1/planner/:id
func (h *PlannerHandler) Update(c *gin.Context) {
	var patch tripbuilder.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := h.plannerService.Update(c.Request.Context(), owner(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, view)
}

// Next handles POST /api/v1/planner/:id/next
func (h *PlannerHandler) Next(c *gin.Context) {
	view, err := h.plannerService.Next(c.Request.Context(), owner(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, view)
}

// Prev handles POST /api/v1/planner/:id/prev
func (h *PlannerHandler) Prev(c *gin.Context) {
	view, err := h.plannerService.Prev(c.Request.Context(), owner(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, view)
}

// GoTo handles POST /api/v1/planner/:id/step/:step
func (h *PlannerHandler) GoTo(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		respondError(c, tripbuilder.ErrInvalidStep)
		return
	}

	view, err := h.plannerService.GoTo(c.Request.Context(), owner(c), c.Param("id"), tripbuilder.Step(n))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, view)
}

// Submit handles POST /api/v1/planner/:id/submit
func (h *PlannerHandler) Submit(c *gin.Context) {
	view, err := h.plannerService.Submit(c.Request.Context(), owner(c), c.Param("id"), sessionOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, view, "trip saved")
}

// Discard handles DELETE /api/v1/planner/:id
func (h *PlannerHandler) Discard(c *gin.Context) {
	if err := h.plannerService.Discard(c.Request.Context(), owner(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func owner(c *gin.Context) string {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		return claims.ID()
	}
	return ""
}
