// Package approvals computes who may approve a pending request and drives
// the pending-request lifecycle. Approver sets are recomputed on every call:
// team membership and city-access grants change independently, and a cached
// set would let a removed admin keep approval rights.
package approvals

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/models"
)

// GraphReader is the subset of graph reads approver resolution needs.
type GraphReader interface {
	EventCreator(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	TeamMemberIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	EventCity(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	CityAdminIDs(ctx context.Context, cityID uuid.UUID) ([]uuid.UUID, error)
}

// UserDirectory is the subset of relational user reads the resolver needs.
type UserDirectory interface {
	ListAtOrAboveLevel(ctx context.Context, min models.AuthLevel) ([]uuid.UUID, error)
	AuthLevels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AuthLevel, error)
}

// Scope carries the request context approver resolution operates on.
type Scope struct {
	EventID *uuid.UUID
	CityID  *uuid.UUID
}

// Resolver computes approver sets.
type Resolver struct {
	graph GraphReader
	users UserDirectory
}

// NewResolver creates an approver resolver.
func NewResolver(graph GraphReader, users UserDirectory) *Resolver {
	return &Resolver{graph: graph, users: users}
}

// Approvers returns the ordered set of user ids eligible to approve a
// request of the given type in the given scope: event creator first, then
// team members at creator level or above, then city admins. Global requests
// resolve to every user at or above admin.
func (r *Resolver) Approvers(ctx context.Context, reqType models.RequestType, scope Scope) ([]uuid.UUID, error) {
	switch reqType {
	case models.RequestGlobalAccess, models.RequestAuthLevelChange:
		return r.users.ListAtOrAboveLevel(ctx, models.LevelAdmin)
	case models.RequestTag, models.RequestTeamMember:
		return r.eventApprovers(ctx, scope)
	default:
		return nil, fmt.Errorf("unknown request type %q", reqType)
	}
}

func (r *Resolver) eventApprovers(ctx context.Context, scope Scope) ([]uuid.UUID, error) {
	if scope.EventID == nil {
		return nil, fmt.Errorf("event scope required")
	}
	eventID := *scope.EventID

	creator, err := r.graph.EventCreator(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("event creator: %w", err)
	}

	members, err := r.graph.TeamMemberIDs(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("team members: %w", err)
	}
	levels, err := r.users.AuthLevels(ctx, members)
	if err != nil {
		return nil, fmt.Errorf("member levels: %w", err)
	}

	cityID := scope.CityID
	if cityID == nil {
		id, err := r.graph.EventCity(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("event city: %w", err)
		}
		cityID = &id
	}
	cityAdmins, err := r.graph.CityAdminIDs(ctx, *cityID)
	if err != nil {
		return nil, fmt.Errorf("city admins: %w", err)
	}

	seen := map[uuid.UUID]struct{}{creator: {}}
	out := []uuid.UUID{creator}
	for _, id := range members {
		if levels[id] < models.LevelCreator {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range cityAdmins {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// CanApprove reports whether userID is in the approver set for the request.
// Implemented as a membership test over Approvers so the two can never
// drift apart.
func (r *Resolver) CanApprove(ctx context.Context, userID uuid.UUID, reqType models.RequestType, scope Scope) (bool, error) {
	approvers, err := r.Approvers(ctx, reqType, scope)
	if err != nil {
		return false, err
	}
	for _, id := range approvers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}
