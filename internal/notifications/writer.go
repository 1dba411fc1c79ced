package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pusher delivers a notification to a user's open connections. Implemented
// by the realtime hub; nil-safe absence is handled by the writer.
type Pusher interface {
	Push(userID uuid.UUID, event string, payload interface{})
}

// Writer inserts notification rows and pushes them to connected sockets.
// The row insert is the source of truth; a failed push is not an error.
type Writer struct {
	repo   *Repository
	pusher Pusher
	logger *zap.Logger
}

// NewWriter creates a notification writer.
func NewWriter(repo *Repository, pusher Pusher, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{repo: repo, pusher: pusher, logger: logger}
}

// Notify writes one notification for userID and pushes it live.
func (w *Writer) Notify(ctx context.Context, userID uuid.UUID, ntype string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	n, err := w.repo.Create(ctx, userID, ntype, raw)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if w.pusher != nil {
		w.pusher.Push(userID, "notification", n)
	}
	return nil
}

// NotifyAll writes the same notification for each recipient. Per-recipient
// failures are logged and skipped so one bad row cannot drop the rest.
func (w *Writer) NotifyAll(ctx context.Context, userIDs []uuid.UUID, ntype string, payload interface{}) {
	for _, id := range userIDs {
		if err := w.Notify(ctx, id, ntype, payload); err != nil {
			w.logger.Error("notify failed", zap.Error(err), zap.String("user_id", id.String()), zap.String("type", ntype))
		}
	}
}
