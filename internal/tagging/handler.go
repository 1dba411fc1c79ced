package tagging

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
)

// Handler handles the tagging HTTP endpoints.
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler creates a tagging handler.
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

type tagUsersRequest struct {
	EventID   string   `json:"eventId" binding:"required"`
	SectionID *string  `json:"sectionId"`
	VideoID   *string  `json:"videoId"`
	Role      string   `json:"role" binding:"required"`
	UserIDs   []string `json:"userIds" binding:"required"`
}

// TagUsers handles POST /tag-users. The scope is chosen by which optional
// id is present: neither tags the event, sectionId a section, videoId a
// video. Partial failures still return the per-user breakdown, with 400.
func (h *Handler) TagUsers(c *gin.Context) {
	var req tagUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "eventId, role and userIds are required")
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		response.BadRequest(c, "invalid eventId")
		return
	}
	in := Input{EventID: eventID, Role: req.Role}
	if req.SectionID != nil {
		id, err := uuid.Parse(*req.SectionID)
		if err != nil {
			response.BadRequest(c, "invalid sectionId")
			return
		}
		in.SectionID = &id
	}
	if req.VideoID != nil {
		id, err := uuid.Parse(*req.VideoID)
		if err != nil {
			response.BadRequest(c, "invalid videoId")
			return
		}
		in.VideoID = &id
	}
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid user id: "+raw)
			return
		}
		in.UserIDs = append(in.UserIDs, id)
	}

	actor := Actor{
		ID:    c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Level: c.MustGet(middleware.ContextAuthLevel).(models.AuthLevel),
	}
	result, err := h.orchestrator.TagUsers(c.Request.Context(), actor, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Partial() {
		c.JSON(http.StatusBadRequest, response.Body{Success: false, Data: result, Error: "some tags were not applied"})
		return
	}
	response.OK(c, result)
}

// ListTags handles GET /tags?type=<event|section|video>&id=<uuid>.
func (h *Handler) ListTags(c *gin.Context) {
	targetType := models.TargetType(c.Query("type"))
	switch targetType {
	case models.TargetEvent, models.TargetSection, models.TargetVideo:
	default:
		response.BadRequest(c, "type must be event, section or video")
		return
	}
	targetID, err := uuid.Parse(c.Query("id"))
	if err != nil {
		response.BadRequest(c, "invalid target id")
		return
	}
	tags, err := h.orchestrator.TagsOn(c.Request.Context(), models.TagTarget{Type: targetType, ID: targetID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tags)
}

// RemoveWinnerTag handles DELETE /videos/:id/winner-tag. The tag subject
// defaults to the caller; a userId query parameter may name it explicitly,
// but anyone other than the subject is refused.
func (h *Handler) RemoveWinnerTag(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid video id")
		return
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	subjectID := callerID
	if raw := c.Query("userId"); raw != "" {
		subjectID, err = uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid userId")
			return
		}
	}
	if err := h.orchestrator.RemoveSelfWinnerTag(c.Request.Context(), callerID, subjectID, videoID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
