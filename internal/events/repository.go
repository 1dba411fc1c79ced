// Package events owns event lifecycle: graph nodes for structure, a
// Postgres mirror row for listings and picture bookkeeping, and the S3
// objects behind event pictures.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cypherhub/backend/internal/models"
)

// Repository is the Postgres side of event storage.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateMirror inserts the relational mirror row for a graph event node.
func (r *Repository) CreateMirror(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (id, title, description, city_id, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		e.ID, e.Title, e.Description, e.CityID, e.StartsAt, e.EndsAt, e.CreatedBy,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event mirror: %w", err)
	}
	return nil
}

// GetByID returns the mirror row, or pgx.ErrNoRows.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `
		SELECT id, title, description, city_id, starts_at, ends_at, created_by, created_at, updated_at
		FROM events WHERE id = $1`
	var e models.Event
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.CityID, &e.StartsAt, &e.EndsAt,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns mirror rows, newest start first, optionally filtered by city.
func (r *Repository) List(ctx context.Context, cityID *uuid.UUID) ([]models.Event, error) {
	query := `
		SELECT id, title, description, city_id, starts_at, ends_at, created_by, created_at, updated_at
		FROM events
		WHERE ($1::uuid IS NULL OR city_id = $1)
		ORDER BY starts_at DESC
		LIMIT 200`
	rows, err := r.db.Query(ctx, query, cityID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.CityID, &e.StartsAt, &e.EndsAt,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update rewrites the mutable mirror columns.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, starts_at = $4, ends_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	if err := r.db.QueryRow(ctx, query, e.ID, e.Title, e.Description, e.StartsAt, e.EndsAt).Scan(&e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update event mirror: %w", err)
	}
	return nil
}

// Delete removes the mirror row; picture rows go with it via cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event mirror: %w", err)
	}
	return nil
}

// CreatePicture inserts a picture row for an uploaded object.
func (r *Repository) CreatePicture(ctx context.Context, p *models.EventPicture) error {
	query := `
		INSERT INTO event_pictures (id, event_id, s3_key, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	if err := r.db.QueryRow(ctx, query, p.ID, p.EventID, p.S3Key, p.MimeType, p.SizeBytes).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("insert picture: %w", err)
	}
	return nil
}

// GetPicture returns one picture row scoped to its event, or pgx.ErrNoRows.
func (r *Repository) GetPicture(ctx context.Context, eventID, pictureID uuid.UUID) (*models.EventPicture, error) {
	query := `
		SELECT id, event_id, s3_key, mime_type, size_bytes, created_at
		FROM event_pictures WHERE id = $1 AND event_id = $2`
	var p models.EventPicture
	err := r.db.QueryRow(ctx, query, pictureID, eventID).Scan(
		&p.ID, &p.EventID, &p.S3Key, &p.MimeType, &p.SizeBytes, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPictures returns all picture rows for an event.
func (r *Repository) ListPictures(ctx context.Context, eventID uuid.UUID) ([]models.EventPicture, error) {
	query := `
		SELECT id, event_id, s3_key, mime_type, size_bytes, created_at
		FROM event_pictures WHERE event_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list pictures: %w", err)
	}
	defer rows.Close()

	pictures := []models.EventPicture{}
	for rows.Next() {
		var p models.EventPicture
		if err := rows.Scan(&p.ID, &p.EventID, &p.S3Key, &p.MimeType, &p.SizeBytes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan picture: %w", err)
		}
		pictures = append(pictures, p)
	}
	return pictures, rows.Err()
}

// DeletePicture removes one picture row.
func (r *Repository) DeletePicture(ctx context.Context, eventID, pictureID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM event_pictures WHERE id = $1 AND event_id = $2`, pictureID, eventID); err != nil {
		return fmt.Errorf("delete picture: %w", err)
	}
	return nil
}
