package autofill

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/pkg/queue"
	"github.com/cypherhub/backend/pkg/response"
)

// Handler handles autofill HTTP endpoints.
type Handler struct {
	store  *Store
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an autofill handler.
func NewHandler(store *Store, jobs *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{store: store, jobs: jobs, logger: logger}
}

// SubmitRequest is the body for POST /autofill. Exactly one of flyer_text
// or flyer_url must be set.
type SubmitRequest struct {
	FlyerText string `json:"flyer_text"`
	FlyerURL  string `json:"flyer_url"`
}

// Submit handles POST /autofill (creator level and above).
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if (req.FlyerText == "") == (req.FlyerURL == "") {
		response.BadRequest(c, "provide exactly one of flyer_text or flyer_url")
		return
	}

	ctx := c.Request.Context()
	jobID := uuid.New().String()
	payload := queue.AutofillPayload{
		JobID:       jobID,
		RequestedBy: c.MustGet(middleware.ContextUserID).(uuid.UUID),
		FlyerText:   req.FlyerText,
		FlyerURL:    req.FlyerURL,
	}
	if err := h.store.MarkPending(ctx, jobID); err != nil {
		h.logger.Error("mark autofill pending", zap.Error(err))
		response.Internal(c, "failed to submit autofill job")
		return
	}
	if err := h.jobs.EnqueueAutofill(ctx, payload); err != nil {
		h.logger.Error("enqueue autofill", zap.Error(err))
		response.Internal(c, "failed to submit autofill job")
		return
	}
	response.Created(c, gin.H{"job_id": jobID, "state": StatusPending})
}

// GetStatus handles GET /autofill/:id/status.
func (h *Handler) GetStatus(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := uuid.Parse(jobID); err != nil {
		response.BadRequest(c, "invalid job id")
		return
	}
	st, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			response.NotFound(c, "job not found")
			return
		}
		h.logger.Error("get autofill status", zap.Error(err))
		response.Internal(c, "failed to load job status")
		return
	}
	response.OK(c, st)
}
