package approvals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cypherhub/backend/internal/models"
)

// ErrAlreadyResolved: the request reached a terminal state before this call.
var ErrAlreadyResolved = errors.New("request already resolved")

// Repository handles pending-request persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pending-request repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `id, type, requester_id, subject_id, event_id, city_id,
	COALESCE(role,''), COALESCE(target_type,''), target_id, new_level,
	status, resolved_by, resolved_at, created_at`

func scanRequest(row pgx.Row) (*models.PendingRequest, error) {
	var req models.PendingRequest
	err := row.Scan(&req.ID, &req.Type, &req.RequesterID, &req.SubjectID, &req.EventID, &req.CityID,
		&req.Role, &req.TargetType, &req.TargetID, &req.NewLevel,
		&req.Status, &req.ResolvedBy, &req.ResolvedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a pending request.
func (r *Repository) Create(ctx context.Context, req *models.PendingRequest) error {
	const q = `INSERT INTO pending_requests
		(type, requester_id, subject_id, event_id, city_id, role, target_type, target_id, new_level)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), $8, $9)
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q,
		req.Type, req.RequesterID, req.SubjectID, req.EventID, req.CityID,
		req.Role, string(req.TargetType), req.TargetID, req.NewLevel,
	).Scan(&req.ID, &req.Status, &req.CreatedAt)
}

// GetByID returns a pending request by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.PendingRequest, error) {
	return scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM pending_requests WHERE id = $1`, id))
}

// ListPending returns all requests still awaiting resolution, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.PendingRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+` FROM pending_requests WHERE status = $1 ORDER BY created_at`, models.RequestPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.PendingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *req)
	}
	return list, rows.Err()
}

// Resolve atomically moves a pending request to a terminal state. The
// status guard makes double resolution impossible: the second caller gets
// ErrAlreadyResolved.
func (r *Repository) Resolve(ctx context.Context, id, resolvedBy uuid.UUID, status models.RequestStatus) error {
	const q = `UPDATE pending_requests
		SET status = $1, resolved_by = $2, resolved_at = NOW()
		WHERE id = $3 AND status = $4`
	tag, err := r.pool.Exec(ctx, q, status, resolvedBy, id, models.RequestPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyResolved
	}
	return nil
}
