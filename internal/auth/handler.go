package auth

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/queue"
	"github.com/cypherhub/backend/pkg/response"
	"github.com/cypherhub/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// MagicLinkRequest is the body for POST /auth/magic-link.
type MagicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// GraphSync mirrors user records into the graph store; satisfied by the
// graph store.
type GraphSync interface {
	EnsureUser(ctx context.Context, userID uuid.UUID) error
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo     *Repository
	graph    GraphSync
	jwt      *JWTService
	jobs     *queue.Queue
	linkBase string
	linkTTL  time.Duration
	logger   *zap.Logger
}

// NewHandler creates an auth handler. linkBase is the URL prefix mailed in
// magic links, linkTTLMinutes their validity window.
func NewHandler(repo *Repository, graph GraphSync, jwt *JWTService, jobs *queue.Queue, linkBase string, linkTTLMinutes int, logger *zap.Logger) *Handler {
	return &Handler{
		repo:     repo,
		graph:    graph,
		jwt:      jwt,
		jobs:     jobs,
		linkBase: linkBase,
		linkTTL:  time.Duration(linkTTLMinutes) * time.Minute,
		logger:   logger,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName)
	if err != nil {
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}
	if err := h.graph.EnsureUser(c.Request.Context(), user.ID); err != nil {
		h.logger.Error("ensure user node", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.AuthLevel)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || user.Password == "" || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.AuthLevel)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// RequestMagicLink handles POST /auth/magic-link. Always answers 200 so the
// endpoint cannot be used to probe which emails are registered.
func (h *Handler) RequestMagicLink(c *gin.Context) {
	var req MagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.OK(c, gin.H{"sent": true})
		return
	}

	token, err := utils.NewToken()
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	expiresAt := time.Now().Add(h.linkTTL)
	if err := h.repo.CreateMagicToken(c.Request.Context(), user.ID, utils.HashToken(token), expiresAt); err != nil {
		h.logger.Error("store magic token", zap.Error(err))
		response.Internal(c, "failed to issue token")
		return
	}

	if h.jobs != nil {
		err = h.jobs.EnqueueMagicLink(c.Request.Context(), queue.MagicLinkPayload{
			UserID:         user.ID,
			RecipientEmail: user.Email,
			RecipientName:  user.FullName,
			LinkURL:        h.linkBase + "?token=" + token,
			ExpiresAt:      expiresAt,
		})
		if err != nil {
			h.logger.Error("enqueue magic link mail", zap.Error(err))
		}
	}
	response.OK(c, gin.H{"sent": true})
}

// ConsumeMagicLink handles GET /auth/magic-link/:token. Consuming a valid
// token logs the user in and claims the account if it was a placeholder.
func (h *Handler) ConsumeMagicLink(c *gin.Context) {
	raw := c.Param("token")
	if raw == "" {
		response.BadRequest(c, "missing token")
		return
	}

	userID, err := h.repo.ConsumeMagicToken(c.Request.Context(), utils.HashToken(raw))
	if err != nil {
		response.Unauthorized(c, "invalid or expired link")
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if !user.Claimed {
		if err := h.repo.MarkClaimed(c.Request.Context(), user.ID); err != nil {
			h.logger.Error("mark claimed", zap.Error(err))
		}
		user.Claimed = true
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.AuthLevel)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// InviteRequest is the body for POST /users/invite.
type InviteRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
}

// Invite handles POST /users/invite (creator level and above): creates an
// unclaimed placeholder account so the person can be tagged before they
// register, and mails them a magic link to claim it.
func (h *Handler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if existing, err := h.repo.GetByEmail(ctx, req.Email); err == nil {
		// Already known; hand back the existing record so the caller can tag it.
		response.OK(c, existing.ToPublic())
		return
	}

	user, err := h.repo.CreatePlaceholder(ctx, req.Email, req.FullName)
	if err != nil {
		h.logger.Error("create placeholder", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}
	if err := h.graph.EnsureUser(ctx, user.ID); err != nil {
		h.logger.Error("ensure user node", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	token, err := utils.NewToken()
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	expiresAt := time.Now().Add(h.linkTTL)
	if err := h.repo.CreateMagicToken(ctx, user.ID, utils.HashToken(token), expiresAt); err != nil {
		h.logger.Error("store magic token", zap.Error(err))
		response.Internal(c, "failed to issue token")
		return
	}
	if h.jobs != nil {
		err = h.jobs.EnqueueMagicLink(ctx, queue.MagicLinkPayload{
			UserID:         user.ID,
			RecipientEmail: user.Email,
			RecipientName:  user.FullName,
			LinkURL:        h.linkBase + "?token=" + token,
			ExpiresAt:      expiresAt,
		})
		if err != nil {
			h.logger.Error("enqueue invite mail", zap.Error(err))
		}
	}
	response.Created(c, user.ToPublic())
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}
