package events

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
	"github.com/cypherhub/backend/pkg/storage"
)

// UploadPicture handles POST /events/:id/pictures (multipart, field
// "picture"). The object is written to S3 first; the row only exists once
// the object does.
func (h *Handler) UploadPicture(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ok, err := h.canManage(c, eventID)
	if err != nil {
		h.logger.Error("authorize picture upload", zap.Error(err))
		response.Internal(c, "failed to upload picture")
		return
	}
	if !ok {
		response.Forbidden(c, "not allowed to edit this event")
		return
	}

	fileHeader, err := c.FormFile("picture")
	if err != nil {
		response.BadRequest(c, "picture file is required")
		return
	}
	if fileHeader.Size > storage.MaxPictureSize {
		response.BadRequest(c, "picture exceeds the size limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidatePictureType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported picture type")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("load event for upload", zap.Error(err))
		response.Internal(c, "failed to upload picture")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read picture")
		return
	}
	defer file.Close()

	pictureID := uuid.New()
	key := storage.PictureKey(eventID.String(), pictureID.String(), fileHeader.Filename)
	if _, err := h.s3.Upload(ctx, key, contentType, file, fileHeader.Size); err != nil {
		h.logger.Error("upload picture object", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload picture")
		return
	}

	p := &models.EventPicture{
		ID:        pictureID,
		EventID:   eventID,
		S3Key:     key,
		MimeType:  contentType,
		SizeBytes: fileHeader.Size,
	}
	if err := h.repo.CreatePicture(ctx, p); err != nil {
		if delErr := h.s3.DeleteObject(ctx, key); delErr != nil {
			h.logger.Warn("rollback picture object", zap.Error(delErr), zap.String("key", key))
		}
		h.logger.Error("insert picture row", zap.Error(err))
		response.Internal(c, "failed to upload picture")
		return
	}
	response.Created(c, p)
}

type pictureView struct {
	models.EventPicture
	URL string `json:"url"`
}

// ListPictures handles GET /events/:id/pictures; each entry carries a
// presigned download URL.
func (h *Handler) ListPictures(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ctx := c.Request.Context()
	pictures, err := h.repo.ListPictures(ctx, eventID)
	if err != nil {
		h.logger.Error("list pictures", zap.Error(err))
		response.Internal(c, "failed to list pictures")
		return
	}
	views := make([]pictureView, 0, len(pictures))
	for _, p := range pictures {
		url, err := h.s3.PresignedDownloadURL(ctx, p.S3Key)
		if err != nil {
			h.logger.Warn("presign picture", zap.Error(err), zap.String("key", p.S3Key))
		}
		views = append(views, pictureView{EventPicture: p, URL: url})
	}
	response.OK(c, views)
}

// DeletePicture handles DELETE /events/:id/pictures/:pictureId.
func (h *Handler) DeletePicture(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	pictureID, err := uuid.Parse(c.Param("pictureId"))
	if err != nil {
		response.BadRequest(c, "invalid picture id")
		return
	}
	ok, err := h.canManage(c, eventID)
	if err != nil {
		h.logger.Error("authorize picture delete", zap.Error(err))
		response.Internal(c, "failed to delete picture")
		return
	}
	if !ok {
		response.Forbidden(c, "not allowed to edit this event")
		return
	}

	ctx := c.Request.Context()
	p, err := h.repo.GetPicture(ctx, eventID, pictureID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "picture not found")
			return
		}
		h.logger.Error("load picture", zap.Error(err))
		response.Internal(c, "failed to delete picture")
		return
	}
	if err := h.s3.DeleteObject(ctx, p.S3Key); err != nil {
		h.logger.Warn("delete picture object", zap.Error(err), zap.String("key", p.S3Key))
	}
	if err := h.repo.DeletePicture(ctx, eventID, pictureID); err != nil {
		h.logger.Error("delete picture row", zap.Error(err))
		response.Internal(c, "failed to delete picture")
		return
	}
	response.NoContent(c)
}
