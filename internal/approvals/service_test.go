package approvals

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/apperror"
	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/models"
)

type mockStore struct {
	requests map[uuid.UUID]*models.PendingRequest
	resolved []models.RequestStatus
}

func newMockStore(reqs ...*models.PendingRequest) *mockStore {
	m := &mockStore{requests: map[uuid.UUID]*models.PendingRequest{}}
	for _, r := range reqs {
		m.requests[r.ID] = r
	}
	return m
}

func (m *mockStore) Create(ctx context.Context, req *models.PendingRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = models.RequestPending
	m.requests[req.ID] = req
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*models.PendingRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrAlreadyResolved
	}
	copied := *req
	return &copied, nil
}

func (m *mockStore) ListPending(ctx context.Context) ([]models.PendingRequest, error) {
	out := []models.PendingRequest{}
	for _, r := range m.requests {
		if r.Status == models.RequestPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockStore) Resolve(ctx context.Context, id, resolvedBy uuid.UUID, status models.RequestStatus) error {
	req, ok := m.requests[id]
	if !ok || req.Status != models.RequestPending {
		return ErrAlreadyResolved
	}
	req.Status = status
	req.ResolvedBy = &resolvedBy
	m.resolved = append(m.resolved, status)
	return nil
}

type mockResolver struct {
	approvers []uuid.UUID
}

func (m *mockResolver) Approvers(ctx context.Context, reqType models.RequestType, scope Scope) ([]uuid.UUID, error) {
	return m.approvers, nil
}

func (m *mockResolver) CanApprove(ctx context.Context, userID uuid.UUID, reqType models.RequestType, scope Scope) (bool, error) {
	for _, id := range m.approvers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type mockMutator struct {
	appliedTags  []models.TagTarget
	addedMembers []uuid.UUID
	tagErr       error
}

func (m *mockMutator) ApplyTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error {
	if m.tagErr != nil {
		return m.tagErr
	}
	m.appliedTags = append(m.appliedTags, target)
	return nil
}

func (m *mockMutator) AddTeamMember(ctx context.Context, eventID, userID uuid.UUID) error {
	m.addedMembers = append(m.addedMembers, userID)
	return nil
}

type mockUserAdmin struct {
	updates map[uuid.UUID]models.AuthLevel
}

func (m *mockUserAdmin) UpdateAuthLevel(ctx context.Context, id uuid.UUID, level models.AuthLevel) error {
	if m.updates == nil {
		m.updates = map[uuid.UUID]models.AuthLevel{}
	}
	m.updates[id] = level
	return nil
}

type recordedNotification struct {
	userID uuid.UUID
	ntype  string
}

type recordingNotifier struct {
	sent   []recordedNotification
	fanout [][]uuid.UUID
}

func (m *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, ntype string, payload interface{}) error {
	m.sent = append(m.sent, recordedNotification{userID: userID, ntype: ntype})
	return nil
}

func (m *recordingNotifier) NotifyAll(ctx context.Context, userIDs []uuid.UUID, ntype string, payload interface{}) {
	m.fanout = append(m.fanout, userIDs)
}

func tagRequest(approver uuid.UUID) *models.PendingRequest {
	eventID := uuid.New()
	targetID := uuid.New()
	return &models.PendingRequest{
		ID:          uuid.New(),
		Type:        models.RequestTag,
		RequesterID: uuid.New(),
		SubjectID:   uuid.New(),
		EventID:     &eventID,
		Role:        "DANCER",
		TargetType:  models.TargetEvent,
		TargetID:    &targetID,
		Status:      models.RequestPending,
	}
}

func TestSubmitNotifiesApprovers(t *testing.T) {
	approvers := []uuid.UUID{uuid.New(), uuid.New()}
	store := newMockStore()
	notifier := &recordingNotifier{}
	svc := NewService(store, &mockResolver{approvers: approvers}, &mockMutator{}, &mockUserAdmin{}, notifier, nil)

	eventID := uuid.New()
	req := &models.PendingRequest{
		Type:        models.RequestTag,
		RequesterID: uuid.New(),
		SubjectID:   uuid.New(),
		EventID:     &eventID,
		Role:        "DJ",
	}
	if err := svc.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.ID == uuid.Nil {
		t.Error("Submit did not assign an id")
	}
	if len(notifier.fanout) != 1 || len(notifier.fanout[0]) != 2 {
		t.Errorf("fanout = %v, want one batch of two approvers", notifier.fanout)
	}
}

func TestApproveAppliesTagAndNotifies(t *testing.T) {
	approver := uuid.New()
	req := tagRequest(approver)
	store := newMockStore(req)
	mutator := &mockMutator{}
	notifier := &recordingNotifier{}
	svc := NewService(store, &mockResolver{approvers: []uuid.UUID{approver}}, mutator, &mockUserAdmin{}, notifier, nil)

	resolved, err := svc.Approve(context.Background(), req.ID, approver)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if resolved.Status != models.RequestApproved {
		t.Errorf("status = %s, want approved", resolved.Status)
	}
	if len(mutator.appliedTags) != 1 {
		t.Errorf("applied tags = %v, want one", mutator.appliedTags)
	}
	// Subject and requester differ, both hear about the approval.
	if len(notifier.sent) != 2 {
		t.Errorf("notifications = %v, want subject and requester", notifier.sent)
	}
	for _, n := range notifier.sent {
		if n.ntype != models.NotificationRequestApproved {
			t.Errorf("notification type = %q, want %q", n.ntype, models.NotificationRequestApproved)
		}
	}
}

func TestApproveDuplicateTagStillResolves(t *testing.T) {
	approver := uuid.New()
	req := tagRequest(approver)
	store := newMockStore(req)
	mutator := &mockMutator{tagErr: graph.ErrAlreadyTagged}
	svc := NewService(store, &mockResolver{approvers: []uuid.UUID{approver}}, mutator, &mockUserAdmin{}, &recordingNotifier{}, nil)

	resolved, err := svc.Approve(context.Background(), req.ID, approver)
	if err != nil {
		t.Fatalf("Approve with existing tag: %v", err)
	}
	if resolved.Status != models.RequestApproved {
		t.Errorf("status = %s, want approved", resolved.Status)
	}
}

func TestApproveRejectsNonApprover(t *testing.T) {
	approver := uuid.New()
	req := tagRequest(approver)
	store := newMockStore(req)
	svc := NewService(store, &mockResolver{approvers: []uuid.UUID{approver}}, &mockMutator{}, &mockUserAdmin{}, &recordingNotifier{}, nil)

	_, err := svc.Approve(context.Background(), req.ID, uuid.New())
	if apperror.Code(err) != http.StatusForbidden {
		t.Errorf("code = %d, want 403", apperror.Code(err))
	}
	if store.requests[req.ID].Status != models.RequestPending {
		t.Error("request resolved by a non-approver")
	}
}

func TestApproveIsSingleUse(t *testing.T) {
	approver := uuid.New()
	req := tagRequest(approver)
	store := newMockStore(req)
	mutator := &mockMutator{}
	svc := NewService(store, &mockResolver{approvers: []uuid.UUID{approver}}, mutator, &mockUserAdmin{}, &recordingNotifier{}, nil)

	if _, err := svc.Approve(context.Background(), req.ID, approver); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	_, err := svc.Approve(context.Background(), req.ID, approver)
	if apperror.Code(err) != http.StatusConflict {
		t.Errorf("second approve: code = %d, want 409", apperror.Code(err))
	}
	if len(mutator.appliedTags) != 1 {
		t.Errorf("mutation applied %d times, want once", len(mutator.appliedTags))
	}
}

func TestApproveAuthLevelChange(t *testing.T) {
	approver := uuid.New()
	subject := uuid.New()
	level := models.LevelCreator
	req := &models.PendingRequest{
		ID:          uuid.New(),
		Type:        models.RequestAuthLevelChange,
		RequesterID: uuid.New(),
		SubjectID:   subject,
		NewLevel:    &level,
		Status:      models.RequestPending,
	}
	store := newMockStore(req)
	users := &mockUserAdmin{}
	svc := NewService(store, &mockResolver{approvers: []uuid.UUID{approver}}, &mockMutator{}, users, &recordingNotifier{}, nil)

	if _, err := svc.Approve(context.Background(), req.ID, approver); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if users.updates[subject] != models.LevelCreator {
		t.Errorf("subject level = %v, want %v", users.updates[subject], models.LevelCreator)
	}
}

func TestRejectNotifiesRequesterOnly(t *testing.T) {
	approver := uuid.New()
	req := tagRequest(approver)
	store := newMockStore(req)
	mutator := &mockMutator{}
	notifier := &recordingNotifier{}
	svc := NewService(store, &mockResolver{approvers: []uuid.UUID{approver}}, mutator, &mockUserAdmin{}, notifier, nil)

	resolved, err := svc.Reject(context.Background(), req.ID, approver)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if resolved.Status != models.RequestRejected {
		t.Errorf("status = %s, want rejected", resolved.Status)
	}
	if len(mutator.appliedTags) != 0 {
		t.Error("reject applied the mutation")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].userID != req.RequesterID {
		t.Errorf("notifications = %v, want exactly one for requester %v", notifier.sent, req.RequesterID)
	}
}

func TestListPendingFiltersByApprovalRights(t *testing.T) {
	approver := uuid.New()
	visible := tagRequest(approver)
	store := newMockStore(visible)
	svc := NewService(store, &mockResolver{approvers: []uuid.UUID{approver}}, &mockMutator{}, &mockUserAdmin{}, &recordingNotifier{}, nil)

	got, err := svc.ListPending(context.Background(), approver)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 1 || got[0].ID != visible.ID {
		t.Errorf("pending for approver = %v, want [%v]", got, visible.ID)
	}

	got, err = svc.ListPending(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ListPending outsider: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("pending for outsider = %v, want empty", got)
	}
}
