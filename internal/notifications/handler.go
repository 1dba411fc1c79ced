package notifications

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/pkg/response"
)

// Handler handles notification HTTP endpoints. All routes operate on the
// authenticated user's own rows only.
type Handler struct {
	repo *Repository
}

// NewHandler creates a notifications handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /notifications. Query ?new=1 returns only unread rows.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID, c.Query("new") == "1")
	if err != nil {
		response.Internal(c, "failed to list notifications")
		return
	}
	response.OK(c, list)
}

// MarkOld handles PATCH /notifications/:id/old.
func (h *Handler) MarkOld(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, err := h.repo.MarkOld(c.Request.Context(), id, userID)
	if err != nil {
		response.Internal(c, "failed to mark notification")
		return
	}
	if !ok {
		response.NotFound(c, "notification not found")
		return
	}
	response.NoContent(c)
}

// MarkAllOld handles POST /notifications/mark-all-old.
func (h *Handler) MarkAllOld(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.MarkAllOld(c.Request.Context(), userID); err != nil {
		response.Internal(c, "failed to mark notifications")
		return
	}
	response.NoContent(c)
}
