package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/approvals"
	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/internal/notifications"
	"github.com/cypherhub/backend/pkg/response"
	"github.com/cypherhub/backend/pkg/storage"
)

// Handler handles event HTTP endpoints.
type Handler struct {
	repo     *Repository
	graph    *graph.Store
	requests *approvals.Service
	notify   *notifications.Writer
	s3       *storage.S3
	logger   *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, g *graph.Store, requests *approvals.Service, notify *notifications.Writer, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, graph: g, requests: requests, notify: notify, s3: s3, logger: logger}
}

// canManage reports whether the actor may edit the event: admin level and
// above, the creator, a team member, or an admin of the event's city.
func (h *Handler) canManage(c *gin.Context, eventID uuid.UUID) (bool, error) {
	ctx := c.Request.Context()
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if c.MustGet(middleware.ContextAuthLevel).(models.AuthLevel) >= models.LevelAdmin {
		return true, nil
	}
	creator, err := h.graph.EventCreator(ctx, eventID)
	if err != nil {
		return false, err
	}
	if creator == actorID {
		return true, nil
	}
	member, err := h.graph.IsTeamMember(ctx, eventID, actorID)
	if err != nil {
		return false, err
	}
	if member {
		return true, nil
	}
	cityID, err := h.graph.EventCity(ctx, eventID)
	if err != nil {
		return false, err
	}
	return h.graph.HasCityAccess(ctx, cityID, actorID)
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	CityID      string   `json:"city_id" binding:"required,uuid"`
	Styles      []string `json:"styles"`
	StartsAt    string   `json:"starts_at" binding:"required"`
	EndsAt      *string  `json:"ends_at"`
}

// Create handles POST /events (creator level and above).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cityID, _ := uuid.Parse(req.CityID)
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	var endsAt *time.Time
	if req.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}

	e := &models.Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		CityID:      cityID,
		Styles:      req.Styles,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		CreatedBy:   c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}

	ctx := c.Request.Context()
	if err := h.graph.CreateEvent(ctx, e); err != nil {
		if errors.Is(err, graph.ErrTargetNotFound) {
			response.NotFound(c, "city not found")
			return
		}
		h.logger.Error("create event node", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	if err := h.repo.CreateMirror(ctx, e); err != nil {
		// Graph node exists without a mirror row; roll the node back so the
		// two stores stay consistent.
		if delErr := h.graph.DeleteEvent(ctx, e.ID); delErr != nil {
			h.logger.Error("rollback event node", zap.Error(delErr), zap.String("event_id", e.ID.String()))
		}
		h.logger.Error("create event mirror", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// List handles GET /events?city=<id>.
func (h *Handler) List(c *gin.Context) {
	var cityID *uuid.UUID
	if raw := c.Query("city"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid city id")
			return
		}
		cityID = &id
	}
	events, err := h.repo.List(c.Request.Context(), cityID)
	if err != nil {
		h.logger.Error("list events", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, events)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ctx := c.Request.Context()
	e, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("get event", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if name, err := h.graph.CityName(ctx, e.CityID); err == nil {
		e.CityName = name
	}
	response.OK(c, e)
}

// UpdateRequest is the body for PATCH /events/:id.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}

	ok, err := h.canManage(c, id)
	if err != nil {
		h.logger.Error("authorize event update", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	if !ok {
		response.Forbidden(c, "not allowed to edit this event")
		return
	}

	ctx := c.Request.Context()
	e, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("load event for update", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.StartsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		e.StartsAt = t
	}
	if req.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		e.EndsAt = &t
	}

	if err := h.repo.Update(ctx, e); err != nil {
		h.logger.Error("update event mirror", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	if err := h.graph.UpdateEvent(ctx, e); err != nil {
		h.logger.Error("update event node", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:id. Cascades: S3 picture objects, the
// mirror row (picture rows go with it), then the graph subtree with its
// sections, videos and tags.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ok, err := h.canManage(c, id)
	if err != nil {
		h.logger.Error("authorize event delete", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	if !ok {
		response.Forbidden(c, "not allowed to delete this event")
		return
	}

	ctx := c.Request.Context()
	pictures, err := h.repo.ListPictures(ctx, id)
	if err != nil {
		h.logger.Error("list pictures for delete", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	if h.s3 != nil {
		for _, p := range pictures {
			if err := h.s3.DeleteObject(ctx, p.S3Key); err != nil {
				// Orphaned objects are preferable to a stuck delete; log and move on.
				h.logger.Warn("delete picture object", zap.Error(err), zap.String("key", p.S3Key))
			}
		}
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		h.logger.Error("delete event mirror", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	if err := h.graph.DeleteEvent(ctx, id); err != nil {
		h.logger.Error("delete event subtree", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// SectionRequest is the body for POST /events/:id/sections.
type SectionRequest struct {
	Title   string `json:"title" binding:"required"`
	Bracket string `json:"bracket"`
	Order   int    `json:"order"`
}

// CreateSection handles POST /events/:id/sections.
func (h *Handler) CreateSection(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ok, err := h.canManage(c, eventID)
	if err != nil {
		h.logger.Error("authorize section create", zap.Error(err))
		response.Internal(c, "failed to create section")
		return
	}
	if !ok {
		response.Forbidden(c, "not allowed to edit this event")
		return
	}

	sec := &models.Section{
		ID:      uuid.New(),
		EventID: eventID,
		Title:   req.Title,
		Bracket: req.Bracket,
		Order:   req.Order,
	}
	if err := h.graph.CreateSection(c.Request.Context(), sec); err != nil {
		if errors.Is(err, graph.ErrTargetNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("create section", zap.Error(err))
		response.Internal(c, "failed to create section")
		return
	}
	response.Created(c, sec)
}

// VideoRequest is the body for POST /events/:id/sections/:sectionId/videos.
type VideoRequest struct {
	Title string `json:"title" binding:"required"`
	URL   string `json:"url" binding:"required,url"`
}

// CreateVideo handles POST /events/:id/sections/:sectionId/videos.
func (h *Handler) CreateVideo(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	sectionID, err := uuid.Parse(c.Param("sectionId"))
	if err != nil {
		response.BadRequest(c, "invalid section id")
		return
	}
	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ok, err := h.canManage(c, eventID)
	if err != nil {
		h.logger.Error("authorize video create", zap.Error(err))
		response.Internal(c, "failed to add video")
		return
	}
	if !ok {
		response.Forbidden(c, "not allowed to edit this event")
		return
	}

	v := &models.Video{
		ID:        uuid.New(),
		EventID:   eventID,
		SectionID: sectionID,
		Title:     req.Title,
		URL:       req.URL,
		AddedBy:   c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	if err := h.graph.CreateVideo(c.Request.Context(), v); err != nil {
		if errors.Is(err, graph.ErrTargetNotFound) {
			response.NotFound(c, "section not found in event")
			return
		}
		h.logger.Error("create video", zap.Error(err))
		response.Internal(c, "failed to add video")
		return
	}
	response.Created(c, v)
}
