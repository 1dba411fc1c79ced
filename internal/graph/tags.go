package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cypherhub/backend/internal/models"
)

// targetLabel maps a target type to its node label. The label is
// interpolated (not a parameter) because Cypher does not parameterize
// labels; values come from the closed TargetType set only.
func targetLabel(t models.TargetType) (string, error) {
	switch t {
	case models.TargetEvent:
		return "Event", nil
	case models.TargetSection:
		return "Section", nil
	case models.TargetVideo:
		return "Video", nil
	default:
		return "", fmt.Errorf("unknown target type %q", t)
	}
}

// ApplyTag creates the (user)-[:TAGGED {role}]->(target) relationship.
// The uniqueness check and the create are one MERGE, so a concurrent
// duplicate cannot race past the check. Returns ErrAlreadyTagged when the
// triple existed, ErrTargetNotFound when either node is missing.
func (s *Store) ApplyTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
	label, err := targetLabel(target.Type)
	if err != nil {
		return err
	}
	cypher := fmt.Sprintf(`
		MATCH (t:%s {id: $targetId})
		MATCH (u:User {id: $userId})
		MERGE (u)-[r:TAGGED {role: $role}]->(t)
		ON CREATE SET r.createdAt = datetime(), r._new = true
		WITH r, coalesce(r._new, false) AS created
		REMOVE r._new
		RETURN created`, label)
	records, err := s.write(ctx, cypher, map[string]any{
		"targetId": target.ID.String(),
		"userId":   userID.String(),
		"role":     role,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTargetNotFound
	}
	if created, _ := records[0].Values[0].(bool); !created {
		return ErrAlreadyTagged
	}
	return nil
}

// RemoveTag deletes the (user, target, role) relationship.
// ErrTagNotFound when absent.
func (s *Store) RemoveTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
	label, err := targetLabel(target.Type)
	if err != nil {
		return err
	}
	cypher := fmt.Sprintf(`
		MATCH (u:User {id: $userId})-[r:TAGGED {role: $role}]->(t:%s {id: $targetId})
		DELETE r
		RETURN count(r) AS removed`, label)
	records, err := s.write(ctx, cypher, map[string]any{
		"targetId": target.ID.String(),
		"userId":   userID.String(),
		"role":     role,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrTagNotFound
	}
	if n, _ := records[0].Values[0].(int64); n == 0 {
		return ErrTagNotFound
	}
	return nil
}

// IsUserTaggedInVideo reports whether the user holds any tag of the given
// role on the video. Empty role matches any role.
func (s *Store) IsUserTaggedInVideo(ctx context.Context, videoID, userID uuid.UUID, role string) (bool, error) {
	if role == "" {
		return s.readBool(ctx, `
			RETURN EXISTS {
				MATCH (:User {id: $userId})-[:TAGGED]->(:Video {id: $videoId})
			} AS tagged`,
			map[string]any{"videoId": videoID.String(), "userId": userID.String()})
	}
	return s.readBool(ctx, `
		RETURN EXISTS {
			MATCH (:User {id: $userId})-[:TAGGED {role: $role}]->(:Video {id: $videoId})
		} AS tagged`,
		map[string]any{"videoId": videoID.String(), "userId": userID.String(), "role": role})
}

// TagsOnTarget returns all tags on a target for display.
func (s *Store) TagsOnTarget(ctx context.Context, target models.TagTarget) ([]models.Tag, error) {
	label, err := targetLabel(target.Type)
	if err != nil {
		return nil, err
	}
	cypher := fmt.Sprintf(`
		MATCH (u:User)-[r:TAGGED]->(t:%s {id: $targetId})
		RETURN u.id AS userId, r.role AS role
		ORDER BY r.role, u.id`, label)

	session := s.readSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"targetId": target.ID.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		tags := make([]models.Tag, 0, len(records))
		for _, rec := range records {
			idStr, _ := rec.Values[0].(string)
			role, _ := rec.Values[1].(string)
			id, err := uuid.Parse(idStr)
			if err != nil {
				continue
			}
			tags = append(tags, models.Tag{UserID: id, Target: target, Role: role})
		}
		return tags, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.Tag), nil
}
