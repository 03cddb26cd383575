package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manuscript-backend/internal/shared/server/respond"
)

// Handler exposes read and stop access to background jobs.
type Handler struct {
	Mgr *Manager
}

// NewHandler constructs a Handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{Mgr: mgr}
}

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.listJobs)
	rg.GET("/jobs/:id", h.getJob)
	rg.POST("/jobs/:id/stop", h.stopJob)
}

func (h *Handler) listJobs(c *gin.Context) {
	list, err := h.Mgr.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list jobs", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"jobs": list})
}

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.Mgr.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job", nil)
		return
	}
	respond.JSON(c, http.StatusOK, job)
}

func (h *Handler) stopJob(c *gin.Context) {
	err := h.Mgr.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, ErrNotStoppable):
			respond.Error(c, http.StatusConflict, "not_running", "job is not running", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to stop job", nil)
		}
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"stopping": true})
}
