package approvals

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/pkg/response"
)

// Handler handles pending-request HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates an approvals handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListPending handles GET /requests/pending: requests the caller may approve.
func (h *Handler) ListPending(c *gin.Context) {
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.service.ListPending(c.Request.Context(), callerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Approve handles POST /requests/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	req, err := h.service.Approve(c.Request.Context(), id, callerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, req)
}

// Reject handles POST /requests/:id/reject.
func (h *Handler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	req, err := h.service.Reject(c.Request.Context(), id, callerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, req)
}
