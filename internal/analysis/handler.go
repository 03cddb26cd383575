package analysis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manuscript-backend/internal/archetypes"
	"manuscript-backend/internal/llm"
	"manuscript-backend/internal/manuscripts"
	"manuscript-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/manuscripts/:id/analyze", h.startRun)
	rg.GET("/manuscripts/:id/runs", h.listRuns)
	rg.GET("/runs/:id", h.getRun)
	rg.POST("/runs/:id/stop", h.stopRun)
}

type startRunRequest struct {
	ArchetypeIDs []string `json:"archetypeIds"`
	Mode         string   `json:"mode"`
}

func (h *Handler) startRun(c *gin.Context) {
	manuscriptID := c.Param("id")
	var req startRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	run, err := h.Svc.Start(c.Request.Context(), manuscriptID, StartOptions{
		ArchetypeIDs: req.ArchetypeIDs,
		Mode:         llm.Mode(req.Mode),
	})
	if err != nil {
		switch {
		case errors.Is(err, manuscripts.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "manuscript not found", nil)
		case errors.Is(err, archetypes.ErrNotFound):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown archetype id", nil)
		case errors.Is(err, ErrNoArchetypes):
			respond.Error(c, http.StatusBadRequest, "validation_error", "no archetypes available", nil)
		case errors.Is(err, ErrAlreadyRunning):
			respond.Error(c, http.StatusConflict, "already_running", "an analysis is already running for this manuscript", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"runId":  run.ID,
		"jobId":  run.JobID,
		"status": run.Status,
		"steps":  run.Progress.TotalSteps,
	})
}

func (h *Handler) listRuns(c *gin.Context) {
	runs, err := h.Svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list runs", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "run not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch run", nil)
		return
	}
	respond.JSON(c, http.StatusOK, run)
}

func (h *Handler) stopRun(c *gin.Context) {
	err := h.Svc.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "run not found", nil)
		case errors.Is(err, ErrNotStoppable):
			respond.Error(c, http.StatusConflict, "not_running", "run is not active", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to stop run", nil)
		}
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"stopping": true})
}
