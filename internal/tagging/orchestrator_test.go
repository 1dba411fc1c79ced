package tagging

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/apperror"
	"github.com/cypherhub/backend/internal/approvals"
	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/internal/roles"
)

type mockGraph struct {
	eventExists   func(ctx context.Context, eventID uuid.UUID) (bool, error)
	sectionExists func(ctx context.Context, eventID, sectionID uuid.UUID) (bool, error)
	videoExists   func(ctx context.Context, eventID, videoID uuid.UUID) (bool, error)
	applyTag      func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error
	removeTag     func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error
	taggedInVideo func(ctx context.Context, videoID, userID uuid.UUID, role string) (bool, error)
	eventCreator  func(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	eventCity     func(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	eventTitle    func(ctx context.Context, eventID uuid.UUID) (string, error)
	isTeamMember  func(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	hasCityAccess func(ctx context.Context, cityID, userID uuid.UUID) (bool, error)
}

func (m *mockGraph) EventExists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	if m.eventExists == nil {
		return true, nil
	}
	return m.eventExists(ctx, eventID)
}

func (m *mockGraph) SectionExistsInEvent(ctx context.Context, eventID, sectionID uuid.UUID) (bool, error) {
	if m.sectionExists == nil {
		return true, nil
	}
	return m.sectionExists(ctx, eventID, sectionID)
}

func (m *mockGraph) VideoExistsInEvent(ctx context.Context, eventID, videoID uuid.UUID) (bool, error) {
	if m.videoExists == nil {
		return true, nil
	}
	return m.videoExists(ctx, eventID, videoID)
}

func (m *mockGraph) ApplyTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
	if m.applyTag == nil {
		return nil
	}
	return m.applyTag(ctx, target, userID, role)
}

func (m *mockGraph) RemoveTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
	if m.removeTag == nil {
		return nil
	}
	return m.removeTag(ctx, target, userID, role)
}

func (m *mockGraph) IsUserTaggedInVideo(ctx context.Context, videoID, userID uuid.UUID, role string) (bool, error) {
	if m.taggedInVideo == nil {
		return true, nil
	}
	return m.taggedInVideo(ctx, videoID, userID, role)
}

func (m *mockGraph) TagsOnTarget(ctx context.Context, target models.TagTarget) ([]models.Tag, error) {
	return nil, nil
}

func (m *mockGraph) EventCreator(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	if m.eventCreator == nil {
		return uuid.Nil, nil
	}
	return m.eventCreator(ctx, eventID)
}

func (m *mockGraph) EventCity(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	if m.eventCity == nil {
		return uuid.Nil, nil
	}
	return m.eventCity(ctx, eventID)
}

func (m *mockGraph) EventTitle(ctx context.Context, eventID uuid.UUID) (string, error) {
	if m.eventTitle == nil {
		return "Summer Jam", nil
	}
	return m.eventTitle(ctx, eventID)
}

func (m *mockGraph) IsTeamMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	if m.isTeamMember == nil {
		return false, nil
	}
	return m.isTeamMember(ctx, eventID, userID)
}

func (m *mockGraph) HasCityAccess(ctx context.Context, cityID, userID uuid.UUID) (bool, error) {
	if m.hasCityAccess == nil {
		return false, nil
	}
	return m.hasCityAccess(ctx, cityID, userID)
}

type sent struct {
	userID uuid.UUID
	ntype  string
}

type mockNotifier struct {
	single []sent
	fanout [][]uuid.UUID
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, ntype string, payload interface{}) error {
	m.single = append(m.single, sent{userID: userID, ntype: ntype})
	return nil
}

func (m *mockNotifier) NotifyAll(ctx context.Context, userIDs []uuid.UUID, ntype string, payload interface{}) {
	m.fanout = append(m.fanout, userIDs)
}

type mockFiler struct {
	submitted []*models.PendingRequest
	err       error
}

func (m *mockFiler) Submit(ctx context.Context, req *models.PendingRequest) error {
	if m.err != nil {
		return m.err
	}
	m.submitted = append(m.submitted, req)
	return nil
}

type mockApprovers struct {
	ids []uuid.UUID
}

func (m *mockApprovers) Approvers(ctx context.Context, reqType models.RequestType, scope approvals.Scope) ([]uuid.UUID, error) {
	return m.ids, nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func adminActor() Actor {
	return Actor{ID: uuid.New(), Level: models.LevelAdmin}
}

func TestTagUsersBatchPartialOutcome(t *testing.T) {
	actor := adminActor()
	eventID := uuid.New()
	u1, u2 := uuid.New(), uuid.New()

	g := &mockGraph{
		applyTag: func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
			if userID == u1 {
				return graph.ErrAlreadyTagged
			}
			return nil
		},
	}
	notifier := &mockNotifier{}
	o := NewOrchestrator(g, notifier, &mockFiler{}, &mockApprovers{}, nil)

	res, err := o.TagUsers(context.Background(), actor, Input{
		EventID: eventID,
		Role:    roles.Dancer,
		UserIDs: []uuid.UUID{u1, u2},
	})
	if err != nil {
		t.Fatalf("TagUsers: %v", err)
	}
	if len(res.Succeeded) != 1 || res.Succeeded[0] != u2 {
		t.Errorf("succeeded = %v, want [%v]", res.Succeeded, u2)
	}
	if len(res.AlreadyTagged) != 1 || res.AlreadyTagged[0] != u1 {
		t.Errorf("alreadyTagged = %v, want [%v]", res.AlreadyTagged, u1)
	}
	if len(res.Failed) != 0 {
		t.Errorf("failed = %v, want empty", res.Failed)
	}
	if res.Partial() {
		t.Error("Partial() = true for a batch with no failures")
	}
	// Only the newly tagged user gets a notification; the duplicate must
	// not produce a second one.
	if len(notifier.single) != 1 || notifier.single[0].userID != u2 {
		t.Errorf("notifications = %v, want exactly one for %v", notifier.single, u2)
	}
	if notifier.single[0].ntype != models.NotificationTagged {
		t.Errorf("notification type = %q, want %q", notifier.single[0].ntype, models.NotificationTagged)
	}
}

func TestTagUsersUnknownRoleRejectsWholeBatch(t *testing.T) {
	applied := 0
	g := &mockGraph{
		applyTag: func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
			applied++
			return nil
		},
	}
	notifier := &mockNotifier{}
	o := NewOrchestrator(g, notifier, &mockFiler{}, &mockApprovers{}, nil)

	_, err := o.TagUsers(context.Background(), adminActor(), Input{
		EventID: uuid.New(),
		Role:    "GOAT",
		UserIDs: []uuid.UUID{uuid.New(), uuid.New()},
	})
	if apperror.Code(err) != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400; err = %v", apperror.Code(err), err)
	}
	if applied != 0 {
		t.Errorf("ApplyTag called %d times, want 0", applied)
	}
	if len(notifier.single) != 0 || len(notifier.fanout) != 0 {
		t.Errorf("notifications sent for an invalid batch: %v %v", notifier.single, notifier.fanout)
	}
}

func TestTagUsersValidation(t *testing.T) {
	o := NewOrchestrator(&mockGraph{}, &mockNotifier{}, &mockFiler{}, &mockApprovers{}, nil)
	sectionID, videoID := uuid.New(), uuid.New()

	cases := map[string]Input{
		"missing event": {Role: roles.Dancer, UserIDs: []uuid.UUID{uuid.New()}},
		"empty users":   {EventID: uuid.New(), Role: roles.Dancer},
		"both scopes": {
			EventID: uuid.New(), Role: roles.Dancer, UserIDs: []uuid.UUID{uuid.New()},
			SectionID: &sectionID, VideoID: &videoID,
		},
	}
	for name, in := range cases {
		if _, err := o.TagUsers(context.Background(), adminActor(), in); apperror.Code(err) != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", name, apperror.Code(err))
		}
	}
}

func TestTagUsersMissingTargets(t *testing.T) {
	eventID := uuid.New()
	missing := uuid.New()
	g := &mockGraph{
		eventExists: func(ctx context.Context, id uuid.UUID) (bool, error) {
			return id == eventID, nil
		},
		sectionExists: func(ctx context.Context, _, sectionID uuid.UUID) (bool, error) {
			return sectionID != missing, nil
		},
		videoExists: func(ctx context.Context, _, videoID uuid.UUID) (bool, error) {
			return videoID != missing, nil
		},
	}
	o := NewOrchestrator(g, &mockNotifier{}, &mockFiler{}, &mockApprovers{}, nil)
	users := []uuid.UUID{uuid.New()}

	if _, err := o.TagUsers(context.Background(), adminActor(), Input{
		EventID: uuid.New(), Role: roles.DJ, UserIDs: users,
	}); apperror.Code(err) != http.StatusNotFound {
		t.Errorf("unknown event: code = %d, want 404", apperror.Code(err))
	}
	if _, err := o.TagUsers(context.Background(), adminActor(), Input{
		EventID: eventID, SectionID: &missing, Role: roles.DJ, UserIDs: users,
	}); apperror.Code(err) != http.StatusNotFound {
		t.Errorf("unknown section: code = %d, want 404", apperror.Code(err))
	}
	if _, err := o.TagUsers(context.Background(), adminActor(), Input{
		EventID: eventID, VideoID: &missing, Role: roles.DJ, UserIDs: users,
	}); apperror.Code(err) != http.StatusNotFound {
		t.Errorf("unknown video: code = %d, want 404", apperror.Code(err))
	}
}

func TestTagUsersVideoScopeTargetsVideo(t *testing.T) {
	videoID := uuid.New()
	var got models.TagTarget
	g := &mockGraph{
		applyTag: func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
			got = target
			return nil
		},
	}
	o := NewOrchestrator(g, &mockNotifier{}, &mockFiler{}, &mockApprovers{}, nil)

	_, err := o.TagUsers(context.Background(), adminActor(), Input{
		EventID: uuid.New(), VideoID: &videoID, Role: roles.Winner, UserIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("TagUsers: %v", err)
	}
	if got.Type != models.TargetVideo || got.ID != videoID {
		t.Errorf("target = %+v, want video %v", got, videoID)
	}
}

func TestTagUsersUnauthorizedActorFilesRequests(t *testing.T) {
	actor := Actor{ID: uuid.New(), Level: models.LevelViewer}
	eventID := uuid.New()
	u1, u2 := uuid.New(), uuid.New()

	applied := 0
	g := &mockGraph{
		applyTag: func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
			applied++
			return nil
		},
	}
	filer := &mockFiler{}
	o := NewOrchestrator(g, &mockNotifier{}, filer, &mockApprovers{}, nil)

	res, err := o.TagUsers(context.Background(), actor, Input{
		EventID: eventID, Role: roles.Judge, UserIDs: []uuid.UUID{u1, u2},
	})
	if err != nil {
		t.Fatalf("TagUsers: %v", err)
	}
	if applied != 0 {
		t.Errorf("ApplyTag called %d times for an unauthorized actor, want 0", applied)
	}
	if len(res.Pending) != 2 || !contains(res.Pending, u1) || !contains(res.Pending, u2) {
		t.Errorf("pending = %v, want both users", res.Pending)
	}
	if len(filer.submitted) != 2 {
		t.Fatalf("filed %d requests, want 2", len(filer.submitted))
	}
	for _, req := range filer.submitted {
		if req.Type != models.RequestTag || req.RequesterID != actor.ID || req.Role != roles.Judge {
			t.Errorf("filed request = %+v", req)
		}
		if req.EventID == nil || *req.EventID != eventID {
			t.Errorf("filed request event = %v, want %v", req.EventID, eventID)
		}
	}
}

func TestTagUsersCreatorActsDirectly(t *testing.T) {
	actor := Actor{ID: uuid.New(), Level: models.LevelCreator}
	g := &mockGraph{
		eventCreator: func(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
			return actor.ID, nil
		},
	}
	filer := &mockFiler{}
	o := NewOrchestrator(g, &mockNotifier{}, filer, &mockApprovers{}, nil)

	res, err := o.TagUsers(context.Background(), actor, Input{
		EventID: uuid.New(), Role: roles.MC, UserIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("TagUsers: %v", err)
	}
	if len(res.Succeeded) != 1 {
		t.Errorf("succeeded = %v, want one user", res.Succeeded)
	}
	if len(filer.submitted) != 0 {
		t.Errorf("creator filed %d requests, want 0", len(filer.submitted))
	}
}

func TestTagUsersApproverFanOutExcludesActor(t *testing.T) {
	actor := adminActor()
	other := uuid.New()
	notifier := &mockNotifier{}
	o := NewOrchestrator(&mockGraph{}, notifier, &mockFiler{}, &mockApprovers{ids: []uuid.UUID{actor.ID, other}}, nil)

	_, err := o.TagUsers(context.Background(), actor, Input{
		EventID: uuid.New(), Role: roles.Organizer, UserIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("TagUsers: %v", err)
	}
	if len(notifier.fanout) != 1 {
		t.Fatalf("fanout batches = %d, want 1", len(notifier.fanout))
	}
	if contains(notifier.fanout[0], actor.ID) {
		t.Error("approver fan-out includes the actor")
	}
	if !contains(notifier.fanout[0], other) {
		t.Errorf("approver fan-out = %v, want %v included", notifier.fanout[0], other)
	}
}

func TestTagUsersSelfTagSkipsApproverFanOut(t *testing.T) {
	actor := adminActor()
	notifier := &mockNotifier{}
	o := NewOrchestrator(&mockGraph{}, notifier, &mockFiler{}, &mockApprovers{ids: []uuid.UUID{uuid.New()}}, nil)

	_, err := o.TagUsers(context.Background(), actor, Input{
		EventID: uuid.New(), Role: roles.Dancer, UserIDs: []uuid.UUID{actor.ID},
	})
	if err != nil {
		t.Fatalf("TagUsers: %v", err)
	}
	if len(notifier.fanout) != 0 {
		t.Errorf("self-tag triggered approver fan-out: %v", notifier.fanout)
	}
}

func TestTagUsersFailedUserKeepsBatchGoing(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	g := &mockGraph{
		applyTag: func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
			if userID == u1 {
				return errors.New("connection reset")
			}
			return nil
		},
	}
	o := NewOrchestrator(g, &mockNotifier{}, &mockFiler{}, &mockApprovers{}, nil)

	res, err := o.TagUsers(context.Background(), adminActor(), Input{
		EventID: uuid.New(), Role: roles.Photographer, UserIDs: []uuid.UUID{u1, u2},
	})
	if err != nil {
		t.Fatalf("TagUsers: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0] != u1 {
		t.Errorf("failed = %v, want [%v]", res.Failed, u1)
	}
	if len(res.Succeeded) != 1 || res.Succeeded[0] != u2 {
		t.Errorf("succeeded = %v, want [%v]", res.Succeeded, u2)
	}
	if !res.Partial() {
		t.Error("Partial() = false for a batch with a failure")
	}
}

func TestRemoveSelfWinnerTag(t *testing.T) {
	caller := uuid.New()
	videoID := uuid.New()

	t.Run("caller is not subject", func(t *testing.T) {
		o := NewOrchestrator(&mockGraph{}, &mockNotifier{}, &mockFiler{}, &mockApprovers{}, nil)
		err := o.RemoveSelfWinnerTag(context.Background(), caller, uuid.New(), videoID)
		if apperror.Code(err) != http.StatusUnauthorized {
			t.Errorf("code = %d, want 401", apperror.Code(err))
		}
	})

	t.Run("no winner tag", func(t *testing.T) {
		g := &mockGraph{
			taggedInVideo: func(ctx context.Context, videoID, userID uuid.UUID, role string) (bool, error) {
				return false, nil
			},
		}
		o := NewOrchestrator(g, &mockNotifier{}, &mockFiler{}, &mockApprovers{}, nil)
		err := o.RemoveSelfWinnerTag(context.Background(), caller, caller, videoID)
		if apperror.Code(err) != http.StatusNotFound {
			t.Errorf("code = %d, want 404", apperror.Code(err))
		}
	})

	t.Run("removes own tag", func(t *testing.T) {
		var removedRole string
		var removedTarget models.TagTarget
		g := &mockGraph{
			removeTag: func(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
				removedTarget, removedRole = target, role
				return nil
			},
		}
		o := NewOrchestrator(g, &mockNotifier{}, &mockFiler{}, &mockApprovers{}, nil)
		if err := o.RemoveSelfWinnerTag(context.Background(), caller, caller, videoID); err != nil {
			t.Fatalf("RemoveSelfWinnerTag: %v", err)
		}
		if removedRole != roles.Winner {
			t.Errorf("removed role = %q, want %q", removedRole, roles.Winner)
		}
		if removedTarget.Type != models.TargetVideo || removedTarget.ID != videoID {
			t.Errorf("removed target = %+v, want video %v", removedTarget, videoID)
		}
	})
}
