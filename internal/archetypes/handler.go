package archetypes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manuscript-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the archetypes service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches archetype routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/archetypes", h.listArchetypes)
	rg.POST("/archetypes", h.createArchetype)
	rg.GET("/archetypes/:id", h.getArchetype)
	rg.PUT("/archetypes/:id", h.updateArchetype)
	rg.DELETE("/archetypes/:id", h.deleteArchetype)
}

func (h *Handler) listArchetypes(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list archetypes", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"archetypes": list})
}

func (h *Handler) createArchetype(c *gin.Context) {
	var in Archetype
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	created, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create archetype", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, created)
}

func (h *Handler) getArchetype(c *gin.Context) {
	archetype, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "archetype not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch archetype", nil)
		return
	}
	respond.JSON(c, http.StatusOK, archetype)
}

func (h *Handler) updateArchetype(c *gin.Context) {
	var in Archetype
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	in.ID = c.Param("id")
	updated, err := h.Svc.Update(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "archetype not found", nil)
		case errors.Is(err, ErrInvalid):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update archetype", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, updated)
}

func (h *Handler) deleteArchetype(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "archetype not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete archetype", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}
