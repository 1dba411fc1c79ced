package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cypherhub/backend/internal/models"
)

// EnsureUser creates the user's graph node if absent. Called on register,
// claim, and when tagging creates a placeholder user.
func (s *Store) EnsureUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.write(ctx, `MERGE (:User {id: $userId})`,
		map[string]any{"userId": userID.String()})
	return err
}

// CreateEvent writes the event node, its city edge, style edges and the
// creator edge in one statement.
func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	records, err := s.write(ctx, `
		MATCH (c:City {id: $cityId})
		MATCH (u:User {id: $createdBy})
		CREATE (e:Event {id: $id, title: $title, startsAt: $startsAt})
		CREATE (e)-[:IN_CITY]->(c)
		CREATE (e)-[:CREATED_BY]->(u)
		WITH e
		UNWIND CASE WHEN size($styles) = 0 THEN [null] ELSE $styles END AS styleName
		OPTIONAL MATCH (st:Style {name: styleName})
		FOREACH (x IN CASE WHEN st IS NULL THEN [] ELSE [1] END | CREATE (e)-[:HAS_STYLE]->(st))
		RETURN DISTINCT e.id`,
		map[string]any{
			"id":        e.ID.String(),
			"title":     e.Title,
			"startsAt":  e.StartsAt.UTC().Format(time.RFC3339),
			"cityId":    e.CityID.String(),
			"createdBy": e.CreatedBy.String(),
			"styles":    e.Styles,
		})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// UpdateEvent rewrites the mutable properties on the event node.
func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	records, err := s.write(ctx, `
		MATCH (e:Event {id: $id})
		SET e.title = $title, e.startsAt = $startsAt
		RETURN e.id`,
		map[string]any{
			"id":       e.ID.String(),
			"title":    e.Title,
			"startsAt": e.StartsAt.UTC().Format(time.RFC3339),
		})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// DeleteEvent removes the event node and its whole subtree: sections,
// videos and every tag or team edge hanging off them.
func (s *Store) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	_, err := s.write(ctx, `
		MATCH (e:Event {id: $eventId})
		OPTIONAL MATCH (e)-[:HAS_SECTION]->(s:Section)
		OPTIONAL MATCH (s)-[:HAS_VIDEO]->(v:Video)
		DETACH DELETE v, s, e`,
		map[string]any{"eventId": eventID.String()})
	return err
}

// CreateSection attaches a section node to its event.
func (s *Store) CreateSection(ctx context.Context, sec *models.Section) error {
	records, err := s.write(ctx, `
		MATCH (e:Event {id: $eventId})
		CREATE (s:Section {id: $id, title: $title, bracket: $bracket, order: $order})
		CREATE (e)-[:HAS_SECTION]->(s)
		RETURN s.id`,
		map[string]any{
			"id":      sec.ID.String(),
			"eventId": sec.EventID.String(),
			"title":   sec.Title,
			"bracket": sec.Bracket,
			"order":   sec.Order,
		})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// CreateVideo attaches a video node to a section of the event.
func (s *Store) CreateVideo(ctx context.Context, v *models.Video) error {
	records, err := s.write(ctx, `
		MATCH (:Event {id: $eventId})-[:HAS_SECTION]->(sec:Section {id: $sectionId})
		CREATE (vid:Video {id: $id, title: $title, url: $url})
		CREATE (sec)-[:HAS_VIDEO]->(vid)
		RETURN vid.id`,
		map[string]any{
			"id":        v.ID.String(),
			"eventId":   v.EventID.String(),
			"sectionId": v.SectionID.String(),
			"title":     v.Title,
			"url":       v.URL,
		})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// EventExists reports whether the event node exists.
func (s *Store) EventExists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return s.readBool(ctx,
		`RETURN EXISTS { MATCH (:Event {id: $eventId}) } AS found`,
		map[string]any{"eventId": eventID.String()})
}

// SectionExistsInEvent reports whether the section belongs to the event.
func (s *Store) SectionExistsInEvent(ctx context.Context, eventID, sectionID uuid.UUID) (bool, error) {
	return s.readBool(ctx, `
		RETURN EXISTS {
			MATCH (:Event {id: $eventId})-[:HAS_SECTION]->(:Section {id: $sectionId})
		} AS found`,
		map[string]any{"eventId": eventID.String(), "sectionId": sectionID.String()})
}

// VideoExistsInEvent reports whether the video belongs to one of the
// event's sections.
func (s *Store) VideoExistsInEvent(ctx context.Context, eventID, videoID uuid.UUID) (bool, error) {
	return s.readBool(ctx, `
		RETURN EXISTS {
			MATCH (:Event {id: $eventId})-[:HAS_SECTION]->(:Section)-[:HAS_VIDEO]->(:Video {id: $videoId})
		} AS found`,
		map[string]any{"eventId": eventID.String(), "videoId": videoID.String()})
}

// EventCreator returns the id of the event's creator.
func (s *Store) EventCreator(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	raw, err := s.readString(ctx, `
		MATCH (:Event {id: $eventId})-[:CREATED_BY]->(u:User)
		RETURN u.id`,
		map[string]any{"eventId": eventID.String()})
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}

// EventTitle returns the event's title for notification payloads.
func (s *Store) EventTitle(ctx context.Context, eventID uuid.UUID) (string, error) {
	return s.readString(ctx,
		`MATCH (e:Event {id: $eventId}) RETURN e.title`,
		map[string]any{"eventId": eventID.String()})
}

// EventCity returns the id of the event's city.
func (s *Store) EventCity(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	raw, err := s.readString(ctx, `
		MATCH (:Event {id: $eventId})-[:IN_CITY]->(c:City)
		RETURN c.id`,
		map[string]any{"eventId": eventID.String()})
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}

// CityName returns the city's display name.
func (s *Store) CityName(ctx context.Context, cityID uuid.UUID) (string, error) {
	return s.readString(ctx,
		`MATCH (c:City {id: $cityId}) RETURN c.name`,
		map[string]any{"cityId": cityID.String()})
}

// Cities returns the city catalog.
func (s *Store) Cities(ctx context.Context) ([]models.City, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (c:City) RETURN c.id, c.name, coalesce(c.country, '') ORDER BY c.name`, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		cities := make([]models.City, 0, len(records))
		for _, rec := range records {
			idStr, _ := rec.Values[0].(string)
			id, err := uuid.Parse(idStr)
			if err != nil {
				continue
			}
			name, _ := rec.Values[1].(string)
			country, _ := rec.Values[2].(string)
			cities = append(cities, models.City{ID: id, Name: name, Country: country})
		}
		return cities, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.City), nil
}

// Styles returns the style catalog.
func (s *Store) Styles(ctx context.Context) ([]models.Style, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (s:Style) RETURN s.id, s.name ORDER BY s.name`, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		styles := make([]models.Style, 0, len(records))
		for _, rec := range records {
			idStr, _ := rec.Values[0].(string)
			id, err := uuid.Parse(idStr)
			if err != nil {
				continue
			}
			name, _ := rec.Values[1].(string)
			styles = append(styles, models.Style{ID: id, Name: name})
		}
		return styles, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.Style), nil
}
