package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
)

// RequestFiler files pending requests; satisfied by the approvals service.
type RequestFiler interface {
	Submit(ctx context.Context, req *models.PendingRequest) error
}

// Notifier writes notifications; satisfied by the notifications writer.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype string, payload interface{}) error
}

// AdminHandler handles user administration endpoints.
type AdminHandler struct {
	repo     *Repository
	requests RequestFiler
	notify   Notifier
	logger   *zap.Logger
}

// NewAdminHandler creates the user administration handler.
func NewAdminHandler(repo *Repository, requests RequestFiler, notify Notifier, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{repo: repo, requests: requests, notify: notify, logger: logger}
}

// AuthLevelRequest is the body for PATCH /users/:id/auth-level.
type AuthLevelRequest struct {
	Level int `json:"level" binding:"required"`
}

// UpdateAuthLevel handles PATCH /users/:id/auth-level (admin level and
// above). Superadmins change the level directly; admins file a pending
// request for superadmin confirmation and get 202.
func (h *AdminHandler) UpdateAuthLevel(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req AuthLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	level := models.AuthLevel(req.Level)
	if level < models.LevelViewer || level > models.LevelSuperAdmin {
		response.BadRequest(c, "level out of range")
		return
	}

	ctx := c.Request.Context()
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	actorLevel := c.MustGet(middleware.ContextAuthLevel).(models.AuthLevel)
	if targetID == actorID {
		response.Forbidden(c, "cannot change your own level")
		return
	}

	if actorLevel < models.LevelSuperAdmin {
		pending := &models.PendingRequest{
			Type:        models.RequestAuthLevelChange,
			RequesterID: actorID,
			SubjectID:   targetID,
			NewLevel:    &level,
		}
		if err := h.requests.Submit(ctx, pending); err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusAccepted, response.Body{Success: true, Data: pending})
		return
	}

	if err := h.repo.UpdateAuthLevel(ctx, targetID, level); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("update auth level", zap.Error(err))
		response.Internal(c, "failed to update auth level")
		return
	}
	if err := h.notify.Notify(ctx, targetID, models.NotificationAuthLevelChange, map[string]interface{}{
		"new_level":  level,
		"changed_by": actorID,
	}); err != nil {
		h.logger.Error("auth level notification", zap.Error(err))
	}
	response.OK(c, gin.H{"user_id": targetID, "level": level})
}
