// Package cities exposes the city catalog: public browsing plus
// superadmin-only catalog writes and city-admin grants.
package cities

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
)

// Handler handles city HTTP endpoints.
type Handler struct {
	graph  *graph.Store
	logger *zap.Logger
}

// NewHandler creates a cities handler.
func NewHandler(g *graph.Store, logger *zap.Logger) *Handler {
	return &Handler{graph: g, logger: logger}
}

// List handles GET /cities.
func (h *Handler) List(c *gin.Context) {
	cities, err := h.graph.Cities(c.Request.Context())
	if err != nil {
		h.logger.Error("list cities", zap.Error(err))
		response.Internal(c, "failed to list cities")
		return
	}
	response.OK(c, cities)
}

// CreateRequest is the body for POST /cities (superadmin only).
type CreateRequest struct {
	Name    string `json:"name" binding:"required"`
	Country string `json:"country"`
}

// Create handles POST /cities.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	city := &models.City{ID: uuid.New(), Name: req.Name, Country: req.Country}
	if err := h.graph.CreateCity(c.Request.Context(), city); err != nil {
		h.logger.Error("create city", zap.Error(err))
		response.Internal(c, "failed to create city")
		return
	}
	response.Created(c, city)
}

// GrantAdminRequest is the body for POST /cities/:id/admins.
type GrantAdminRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// GrantAdmin handles POST /cities/:id/admins (superadmin only): makes a
// user an admin of this city's events.
func (h *Handler) GrantAdmin(c *gin.Context) {
	cityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid city id")
		return
	}
	var req GrantAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID, _ := uuid.Parse(req.UserID)
	if err := h.graph.GrantCityAccess(c.Request.Context(), cityID, userID); err != nil {
		h.logger.Error("grant city access", zap.Error(err))
		response.Internal(c, "failed to grant city access")
		return
	}
	response.NoContent(c)
}
