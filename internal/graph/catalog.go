package graph

import (
	"context"

	"github.com/cypherhub/backend/internal/models"
)

// CreateCity adds a city to the catalog. Idempotent on name.
func (s *Store) CreateCity(ctx context.Context, city *models.City) error {
	_, err := s.write(ctx, `
		MERGE (c:City {name: $name})
		ON CREATE SET c.id = $id, c.country = $country`,
		map[string]any{
			"id":      city.ID.String(),
			"name":    city.Name,
			"country": city.Country,
		})
	return err
}

// CreateStyle adds a dance style to the catalog. Idempotent on name.
func (s *Store) CreateStyle(ctx context.Context, style *models.Style) error {
	_, err := s.write(ctx, `
		MERGE (st:Style {name: $name})
		ON CREATE SET st.id = $id`,
		map[string]any{
			"id":   style.ID.String(),
			"name": style.Name,
		})
	return err
}
