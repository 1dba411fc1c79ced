package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cypherhub/backend/internal/models"
)

// Repository handles user and magic-link token persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, COALESCE(password_hash,''), full_name, auth_level, claimed, COALESCE(bio,''), created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.AuthLevel, &u.Claimed, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a claimed user with a password hash.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, auth_level, claimed)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName, models.LevelViewer))
}

// CreatePlaceholder inserts an unclaimed user record, used when tagging
// someone who has no account yet. No password; a magic link claims it.
func (r *Repository) CreatePlaceholder(ctx context.Context, email, fullName string) (*models.User, error) {
	const q = `INSERT INTO users (email, full_name, auth_level, claimed)
		VALUES ($1, $2, $3, FALSE)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, fullName, models.LevelViewer))
}

// MarkClaimed flags the user as claimed (magic-link consume).
func (r *Repository) MarkClaimed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET claimed = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// UpdateAuthLevel sets the user's authorization level.
func (r *Repository) UpdateAuthLevel(ctx context.Context, id uuid.UUID, level models.AuthLevel) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET auth_level = $1, updated_at = NOW() WHERE id = $2`, level, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List returns all users for admin views.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, full_name, auth_level, claimed, created_at FROM users ORDER BY full_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.AuthLevel, &u.Claimed, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ListAtOrAboveLevel returns ids of users at or above the given level.
// Used by approver resolution for global requests.
func (r *Repository) ListAtOrAboveLevel(ctx context.Context, min models.AuthLevel) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE auth_level >= $1 ORDER BY id`, min)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AuthLevels returns the authorization level for each of the given ids.
// Missing ids are simply absent from the map.
func (r *Repository) AuthLevels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AuthLevel, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.AuthLevel{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, auth_level FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]models.AuthLevel, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var level models.AuthLevel
		if err := rows.Scan(&id, &level); err != nil {
			return nil, err
		}
		out[id] = level
	}
	return out, rows.Err()
}

// ErrTokenInvalid covers unknown, expired and already-used magic tokens;
// callers must not be able to distinguish the three.
var ErrTokenInvalid = errors.New("invalid or expired token")

// CreateMagicToken stores the hash of a magic-link token.
func (r *Repository) CreateMagicToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO magic_link_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, q, userID, tokenHash, expiresAt)
	return err
}

// ConsumeMagicToken atomically marks an unused, unexpired token used and
// returns its user id. Single statement, so a token can be consumed once
// even under concurrent submits.
func (r *Repository) ConsumeMagicToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	const q = `UPDATE magic_link_tokens SET used_at = NOW()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING user_id`
	var userID uuid.UUID
	err := r.pool.QueryRow(ctx, q, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrTokenInvalid
	}
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}
