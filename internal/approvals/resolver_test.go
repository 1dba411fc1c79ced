package approvals

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/models"
)

type mockGraphReader struct {
	creator    uuid.UUID
	members    []uuid.UUID
	cityID     uuid.UUID
	cityAdmins []uuid.UUID
}

func (m *mockGraphReader) EventCreator(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	return m.creator, nil
}

func (m *mockGraphReader) TeamMemberIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	return m.members, nil
}

func (m *mockGraphReader) EventCity(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	return m.cityID, nil
}

func (m *mockGraphReader) CityAdminIDs(ctx context.Context, cityID uuid.UUID) ([]uuid.UUID, error) {
	return m.cityAdmins, nil
}

type mockDirectory struct {
	levels map[uuid.UUID]models.AuthLevel
	admins []uuid.UUID
}

func (m *mockDirectory) ListAtOrAboveLevel(ctx context.Context, min models.AuthLevel) ([]uuid.UUID, error) {
	return m.admins, nil
}

func (m *mockDirectory) AuthLevels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AuthLevel, error) {
	return m.levels, nil
}

func has(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestEventApproversCreatorFirst(t *testing.T) {
	creator := uuid.New()
	member := uuid.New()
	cityAdmin := uuid.New()
	eventID := uuid.New()

	r := NewResolver(
		&mockGraphReader{
			creator:    creator,
			members:    []uuid.UUID{member},
			cityID:     uuid.New(),
			cityAdmins: []uuid.UUID{cityAdmin},
		},
		&mockDirectory{levels: map[uuid.UUID]models.AuthLevel{member: models.LevelCreator}},
	)

	got, err := r.Approvers(context.Background(), models.RequestTag, Scope{EventID: &eventID})
	if err != nil {
		t.Fatalf("Approvers: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("approvers = %v, want 3 entries", got)
	}
	if got[0] != creator {
		t.Errorf("approvers[0] = %v, want creator %v", got[0], creator)
	}
	if !has(got, member) || !has(got, cityAdmin) {
		t.Errorf("approvers = %v, want member %v and city admin %v", got, member, cityAdmin)
	}
}

func TestEventApproversSkipViewerLevelMembers(t *testing.T) {
	creator := uuid.New()
	viewerMember := uuid.New()
	eventID := uuid.New()

	r := NewResolver(
		&mockGraphReader{creator: creator, members: []uuid.UUID{viewerMember}},
		&mockDirectory{levels: map[uuid.UUID]models.AuthLevel{viewerMember: models.LevelViewer}},
	)

	got, err := r.Approvers(context.Background(), models.RequestTeamMember, Scope{EventID: &eventID})
	if err != nil {
		t.Fatalf("Approvers: %v", err)
	}
	if has(got, viewerMember) {
		t.Errorf("approvers = %v include viewer-level member %v", got, viewerMember)
	}
}

func TestEventApproversDeduplicate(t *testing.T) {
	// Creator who is also a team member and a city admin appears once.
	creator := uuid.New()
	eventID := uuid.New()

	r := NewResolver(
		&mockGraphReader{
			creator:    creator,
			members:    []uuid.UUID{creator},
			cityAdmins: []uuid.UUID{creator},
		},
		&mockDirectory{levels: map[uuid.UUID]models.AuthLevel{creator: models.LevelCreator}},
	)

	got, err := r.Approvers(context.Background(), models.RequestTag, Scope{EventID: &eventID})
	if err != nil {
		t.Fatalf("Approvers: %v", err)
	}
	if len(got) != 1 || got[0] != creator {
		t.Errorf("approvers = %v, want exactly [%v]", got, creator)
	}
}

func TestGlobalRequestsResolveToAdmins(t *testing.T) {
	admins := []uuid.UUID{uuid.New(), uuid.New()}
	r := NewResolver(&mockGraphReader{}, &mockDirectory{admins: admins})

	for _, reqType := range []models.RequestType{models.RequestGlobalAccess, models.RequestAuthLevelChange} {
		got, err := r.Approvers(context.Background(), reqType, Scope{})
		if err != nil {
			t.Fatalf("Approvers(%s): %v", reqType, err)
		}
		if len(got) != len(admins) {
			t.Errorf("Approvers(%s) = %v, want %v", reqType, got, admins)
		}
	}
}

func TestEventScopeRequired(t *testing.T) {
	r := NewResolver(&mockGraphReader{}, &mockDirectory{})
	if _, err := r.Approvers(context.Background(), models.RequestTag, Scope{}); err == nil {
		t.Error("Approvers with no event scope should fail")
	}
}

func TestCanApproveMatchesApprovers(t *testing.T) {
	creator := uuid.New()
	outsider := uuid.New()
	eventID := uuid.New()

	r := NewResolver(&mockGraphReader{creator: creator}, &mockDirectory{})
	scope := Scope{EventID: &eventID}

	ok, err := r.CanApprove(context.Background(), creator, models.RequestTag, scope)
	if err != nil || !ok {
		t.Errorf("CanApprove(creator) = %v, %v; want true", ok, err)
	}
	ok, err = r.CanApprove(context.Background(), outsider, models.RequestTag, scope)
	if err != nil || ok {
		t.Errorf("CanApprove(outsider) = %v, %v; want false", ok, err)
	}
}
