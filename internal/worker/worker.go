// Package worker runs background jobs dequeued from Redis: LLM event
// autofill and magic-link email delivery.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/autofill"
	"github.com/cypherhub/backend/pkg/mailer"
	"github.com/cypherhub/backend/pkg/queue"
)

// Processor executes jobs of every known type.
type Processor struct {
	queue    *queue.Queue
	statuses *autofill.Store
	llm      *LLMClient
	mail     *mailer.Mailer
	http     *http.Client
	logger   *zap.Logger
}

// NewProcessor creates the job processor.
func NewProcessor(q *queue.Queue, statuses *autofill.Store, llm *LLMClient, mail *mailer.Mailer, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		queue:    q,
		statuses: statuses,
		llm:      llm,
		mail:     mail,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAutofill:
		return p.processAutofill(ctx, job)
	case queue.JobTypeMagicLink:
		return p.processMagicLink(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processAutofill(ctx context.Context, job *queue.Job) error {
	var payload queue.AutofillPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := p.statuses.MarkRunning(ctx, payload.JobID); err != nil {
		p.logger.Warn("mark running failed", zap.Error(err), zap.String("job_id", payload.JobID))
	}

	flyerText := payload.FlyerText
	if flyerText == "" && payload.FlyerURL != "" {
		text, err := FetchFlyerText(ctx, p.http, payload.FlyerURL)
		if err != nil {
			return p.failAutofill(ctx, payload.JobID, "could not fetch flyer", err)
		}
		flyerText = text
	}

	draft, err := p.llm.ExtractDraft(ctx, flyerText)
	if err != nil {
		return p.failAutofill(ctx, payload.JobID, "could not extract event details", err)
	}
	if err := p.statuses.MarkDone(ctx, payload.JobID, draft); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	p.logger.Info("autofill completed", zap.String("job_id", payload.JobID), zap.String("title", draft.Title))
	return nil
}

// failAutofill records the failure for pollers. The returned error still
// drives the queue's retry/DLQ path; a later attempt overwrites the status.
func (p *Processor) failAutofill(ctx context.Context, jobID, reason string, cause error) error {
	if err := p.statuses.MarkFailed(ctx, jobID, reason); err != nil {
		p.logger.Warn("mark failed failed", zap.Error(err), zap.String("job_id", jobID))
	}
	return fmt.Errorf("%s: %w", reason, cause)
}

func (p *Processor) processMagicLink(ctx context.Context, job *queue.Job) error {
	var payload queue.MagicLinkPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if time.Now().After(payload.ExpiresAt) {
		p.logger.Warn("magic link expired before delivery",
			zap.String("user_id", payload.UserID.String()))
		return nil
	}
	if err := p.mail.SendMagicLink(payload.RecipientEmail, payload.RecipientName, payload.LinkURL, payload.ExpiresAt); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}
	p.logger.Info("magic link sent", zap.String("user_id", payload.UserID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
