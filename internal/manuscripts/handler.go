package manuscripts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manuscript-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the manuscripts service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches manuscript routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/manuscripts", h.listManuscripts)
	rg.POST("/manuscripts", h.createManuscript)
	rg.GET("/manuscripts/:id", h.getManuscript)
	rg.DELETE("/manuscripts/:id", h.deleteManuscript)
}

type createManuscriptRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (h *Handler) createManuscript(c *gin.Context) {
	var req createManuscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	manuscript, err := h.Svc.Create(c.Request.Context(), req.Title, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleMissing):
			respond.Error(c, http.StatusBadRequest, "validation_error", "title is required", nil)
		case errors.Is(err, ErrTextTooShort):
			respond.Error(c, http.StatusBadRequest, "validation_error", "text must be at least 100 characters", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store manuscript", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, manuscript.Summarize())
}

func (h *Handler) listManuscripts(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list manuscripts", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"manuscripts": list})
}

func (h *Handler) getManuscript(c *gin.Context) {
	manuscript, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "manuscript not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch manuscript", nil)
		return
	}
	respond.JSON(c, http.StatusOK, manuscript)
}

func (h *Handler) deleteManuscript(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "manuscript not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete manuscript", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}
