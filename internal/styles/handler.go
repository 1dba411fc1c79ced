// Package styles exposes the dance style catalog.
package styles

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
)

// Handler handles style HTTP endpoints.
type Handler struct {
	graph  *graph.Store
	logger *zap.Logger
}

// NewHandler creates a styles handler.
func NewHandler(g *graph.Store, logger *zap.Logger) *Handler {
	return &Handler{graph: g, logger: logger}
}

// List handles GET /styles.
func (h *Handler) List(c *gin.Context) {
	styles, err := h.graph.Styles(c.Request.Context())
	if err != nil {
		h.logger.Error("list styles", zap.Error(err))
		response.Internal(c, "failed to list styles")
		return
	}
	response.OK(c, styles)
}

// CreateRequest is the body for POST /styles (superadmin only).
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /styles.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	style := &models.Style{ID: uuid.New(), Name: req.Name}
	if err := h.graph.CreateStyle(c.Request.Context(), style); err != nil {
		h.logger.Error("create style", zap.Error(err))
		response.Internal(c, "failed to create style")
		return
	}
	response.Created(c, style)
}
