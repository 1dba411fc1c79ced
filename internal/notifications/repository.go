package notifications

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cypherhub/backend/internal/models"
)

// Repository handles notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification row.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, ntype string, payload json.RawMessage) (*models.Notification, error) {
	const q = `INSERT INTO notifications (user_id, type, payload)
		VALUES ($1, $2, $3)
		RETURNING id, is_old, created_at`
	n := &models.Notification{UserID: userID, Type: ntype, Payload: payload}
	err := r.pool.QueryRow(ctx, q, userID, ntype, payload).Scan(&n.ID, &n.IsOld, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListByUser returns the user's notifications, newest first. When onlyNew
// is set, rows already marked old are skipped.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, onlyNew bool) ([]models.Notification, error) {
	q := `SELECT id, user_id, type, payload, is_old, created_at FROM notifications WHERE user_id = $1`
	if onlyNew {
		q += ` AND is_old = FALSE`
	}
	q += ` ORDER BY created_at DESC LIMIT 200`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Payload, &n.IsOld, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkOld marks one notification old. The user filter makes marking another
// user's row indistinguishable from a missing one: zero rows affected.
func (r *Repository) MarkOld(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	const q = `UPDATE notifications SET is_old = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllOld marks every notification of the user old.
func (r *Repository) MarkAllOld(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE notifications SET is_old = TRUE WHERE user_id = $1 AND is_old = FALSE`
	_, err := r.pool.Exec(ctx, q, userID)
	return err
}
