package graph

import (
	"context"

	"github.com/google/uuid"
)

// IsTeamMember reports whether the user is on the event's organizing team.
func (s *Store) IsTeamMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return s.readBool(ctx, `
		RETURN EXISTS {
			MATCH (:User {id: $userId})-[:TEAM_MEMBER]->(:Event {id: $eventId})
		} AS member`,
		map[string]any{"eventId": eventID.String(), "userId": userID.String()})
}

// AddTeamMember adds the user to the event's team. Idempotent: adding an
// existing member is a no-op. ErrTargetNotFound when either node is missing.
func (s *Store) AddTeamMember(ctx context.Context, eventID, userID uuid.UUID) error {
	records, err := s.write(ctx, `
		MATCH (e:Event {id: $eventId})
		MATCH (u:User {id: $userId})
		MERGE (u)-[m:TEAM_MEMBER]->(e)
		ON CREATE SET m.addedAt = datetime()
		RETURN 1`,
		map[string]any{"eventId": eventID.String(), "userId": userID.String()})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// RemoveTeamMember removes the user from the event's team. Removing a
// non-member is a no-op.
func (s *Store) RemoveTeamMember(ctx context.Context, eventID, userID uuid.UUID) error {
	_, err := s.write(ctx, `
		MATCH (u:User {id: $userId})-[m:TEAM_MEMBER]->(e:Event {id: $eventId})
		DELETE m`,
		map[string]any{"eventId": eventID.String(), "userId": userID.String()})
	return err
}

// TeamMemberIDs returns the ids of the event's team members.
func (s *Store) TeamMemberIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.readStrings(ctx, `
		MATCH (u:User)-[:TEAM_MEMBER]->(:Event {id: $eventId})
		RETURN u.id ORDER BY u.id`,
		map[string]any{"eventId": eventID.String()})
	if err != nil {
		return nil, err
	}
	return parseIDs(ids), nil
}

// CityAdminIDs returns the ids of users holding admin access over a city.
func (s *Store) CityAdminIDs(ctx context.Context, cityID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.readStrings(ctx, `
		MATCH (u:User)-[:CITY_ADMIN]->(:City {id: $cityId})
		RETURN u.id ORDER BY u.id`,
		map[string]any{"cityId": cityID.String()})
	if err != nil {
		return nil, err
	}
	return parseIDs(ids), nil
}

// HasCityAccess reports whether the user is an admin of the city.
func (s *Store) HasCityAccess(ctx context.Context, cityID, userID uuid.UUID) (bool, error) {
	return s.readBool(ctx, `
		RETURN EXISTS {
			MATCH (:User {id: $userId})-[:CITY_ADMIN]->(:City {id: $cityId})
		} AS admin`,
		map[string]any{"cityId": cityID.String(), "userId": userID.String()})
}

// GrantCityAccess makes the user an admin of the city. Idempotent.
func (s *Store) GrantCityAccess(ctx context.Context, cityID, userID uuid.UUID) error {
	records, err := s.write(ctx, `
		MATCH (c:City {id: $cityId})
		MATCH (u:User {id: $userId})
		MERGE (u)-[a:CITY_ADMIN]->(c)
		ON CREATE SET a.grantedAt = datetime()
		RETURN 1`,
		map[string]any{"cityId": cityID.String(), "userId": userID.String()})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTargetNotFound
	}
	return nil
}

func parseIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}
