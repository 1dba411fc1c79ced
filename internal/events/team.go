package events

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
)

// TeamMemberRequest is the body for POST /events/:id/team.
type TeamMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// AddTeamMember handles POST /events/:id/team. Authorized actors add the
// member directly; anyone else files a pending request and gets 202.
func (h *Handler) AddTeamMember(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID, _ := uuid.Parse(req.UserID)

	ctx := c.Request.Context()
	exists, err := h.graph.EventExists(ctx, eventID)
	if err != nil {
		h.logger.Error("event exists", zap.Error(err))
		response.Internal(c, "failed to add team member")
		return
	}
	if !exists {
		response.NotFound(c, "event not found")
		return
	}

	ok, err := h.canManage(c, eventID)
	if err != nil {
		h.logger.Error("authorize team add", zap.Error(err))
		response.Internal(c, "failed to add team member")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if !ok {
		pending := &models.PendingRequest{
			Type:        models.RequestTeamMember,
			RequesterID: actorID,
			SubjectID:   userID,
			EventID:     &eventID,
		}
		if err := h.requests.Submit(ctx, pending); err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusAccepted, response.Body{Success: true, Data: pending})
		return
	}

	if err := h.graph.AddTeamMember(ctx, eventID, userID); err != nil {
		h.logger.Error("add team member", zap.Error(err))
		response.Internal(c, "failed to add team member")
		return
	}
	title, _ := h.graph.EventTitle(ctx, eventID)
	if err := h.notify.Notify(ctx, userID, models.NotificationTeamMemberAdded, map[string]interface{}{
		"event_id":    eventID,
		"event_title": title,
		"added_by":    actorID,
	}); err != nil {
		h.logger.Error("team member notification", zap.Error(err))
	}
	response.OK(c, models.TeamMembership{EventID: eventID, UserID: userID})
}

// RemoveTeamMember handles DELETE /events/:id/team/:userId.
func (h *Handler) RemoveTeamMember(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ok, err := h.canManage(c, eventID)
	if err != nil {
		h.logger.Error("authorize team remove", zap.Error(err))
		response.Internal(c, "failed to remove team member")
		return
	}
	if !ok {
		response.Forbidden(c, "not allowed to edit this event")
		return
	}
	if err := h.graph.RemoveTeamMember(c.Request.Context(), eventID, userID); err != nil {
		h.logger.Error("remove team member", zap.Error(err))
		response.Internal(c, "failed to remove team member")
		return
	}
	response.NoContent(c)
}

// ListTeam handles GET /events/:id/team.
func (h *Handler) ListTeam(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ids, err := h.graph.TeamMemberIDs(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list team", zap.Error(err))
		response.Internal(c, "failed to list team")
		return
	}
	response.OK(c, ids)
}
