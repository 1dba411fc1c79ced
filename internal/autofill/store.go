// Package autofill turns event flyers into draft event fields by calling an
// LLM from a background worker. Job status and results live in Redis with a
// TTL; the API enqueues and polls, the worker executes.
package autofill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job lifecycle states.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// statusTTL bounds how long results are pollable.
const statusTTL = 24 * time.Hour

// ErrJobNotFound is returned when a job id is unknown or expired.
var ErrJobNotFound = errors.New("autofill job not found")

// Draft is the LLM-extracted event skeleton, ready to prefill the event
// creation form.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	City        string   `json:"city,omitempty"`
	Styles      []string `json:"styles,omitempty"`
	StartsAt    string   `json:"starts_at,omitempty"` // RFC 3339 when the flyer names a date
	EndsAt      string   `json:"ends_at,omitempty"`
}

// Status is the pollable job state.
type Status struct {
	JobID     string    `json:"job_id"`
	State     string    `json:"state"`
	Draft     *Draft    `json:"draft,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps job status in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates an autofill status store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func statusKey(jobID string) string {
	return "autofill:status:" + jobID
}

func (s *Store) set(ctx context.Context, st *Status) error {
	st.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := s.client.Set(ctx, statusKey(st.JobID), raw, statusTTL).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// MarkPending records a freshly enqueued job.
func (s *Store) MarkPending(ctx context.Context, jobID string) error {
	return s.set(ctx, &Status{JobID: jobID, State: StatusPending})
}

// MarkRunning records that the worker picked the job up.
func (s *Store) MarkRunning(ctx context.Context, jobID string) error {
	return s.set(ctx, &Status{JobID: jobID, State: StatusRunning})
}

// MarkDone records the extracted draft.
func (s *Store) MarkDone(ctx context.Context, jobID string, draft *Draft) error {
	return s.set(ctx, &Status{JobID: jobID, State: StatusDone, Draft: draft})
}

// MarkFailed records a terminal failure with a client-safe reason.
func (s *Store) MarkFailed(ctx context.Context, jobID, reason string) error {
	return s.set(ctx, &Status{JobID: jobID, State: StatusFailed, Error: reason})
}

// Get returns the job status, or ErrJobNotFound.
func (s *Store) Get(ctx context.Context, jobID string) (*Status, error) {
	raw, err := s.client.Get(ctx, statusKey(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	var st Status
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &st, nil
}
