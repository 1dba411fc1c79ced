package approvals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/apperror"
	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/models"
)

// GraphMutator applies the mutations an approved request commits.
type GraphMutator interface {
	ApplyTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error
	AddTeamMember(ctx context.Context, eventID, userID uuid.UUID) error
}

// UserAdmin applies relational user mutations for approved requests.
type UserAdmin interface {
	UpdateAuthLevel(ctx context.Context, id uuid.UUID, level models.AuthLevel) error
}

// Notifier writes notifications; satisfied by the notifications writer.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype string, payload interface{}) error
	NotifyAll(ctx context.Context, userIDs []uuid.UUID, ntype string, payload interface{})
}

// RequestStore is the persistence the service needs; satisfied by *Repository.
type RequestStore interface {
	Create(ctx context.Context, req *models.PendingRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PendingRequest, error)
	ListPending(ctx context.Context) ([]models.PendingRequest, error)
	Resolve(ctx context.Context, id, resolvedBy uuid.UUID, status models.RequestStatus) error
}

// ApproverResolver answers who may approve; satisfied by *Resolver.
type ApproverResolver interface {
	Approvers(ctx context.Context, reqType models.RequestType, scope Scope) ([]uuid.UUID, error)
	CanApprove(ctx context.Context, userID uuid.UUID, reqType models.RequestType, scope Scope) (bool, error)
}

// Service drives the pending-request lifecycle: submit, approve (mutation
// applied, notifications sent), reject.
type Service struct {
	repo     RequestStore
	resolver ApproverResolver
	graph    GraphMutator
	users    UserAdmin
	notify   Notifier
	logger   *zap.Logger
}

// NewService creates the approval service.
func NewService(repo RequestStore, resolver ApproverResolver, graphStore GraphMutator, users UserAdmin, notify Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, resolver: resolver, graph: graphStore, users: users, notify: notify, logger: logger}
}

func scopeOf(req *models.PendingRequest) Scope {
	return Scope{EventID: req.EventID, CityID: req.CityID}
}

// Submit files a pending request and notifies its approvers.
func (s *Service) Submit(ctx context.Context, req *models.PendingRequest) error {
	if err := s.repo.Create(ctx, req); err != nil {
		return apperror.NewInternal(fmt.Errorf("create request: %w", err))
	}

	approvers, err := s.resolver.Approvers(ctx, req.Type, scopeOf(req))
	if err != nil {
		// The request is filed; a notification gap is logged, not fatal.
		s.logger.Error("resolve approvers", zap.Error(err), zap.String("request_id", req.ID.String()))
		return nil
	}
	s.notify.NotifyAll(ctx, approvers, models.NotificationPendingApproval, map[string]interface{}{
		"request_id":   req.ID,
		"request_type": req.Type,
		"requester_id": req.RequesterID,
		"subject_id":   req.SubjectID,
		"event_id":     req.EventID,
	})
	return nil
}

// ListPending returns the pending requests the caller is allowed to approve.
func (s *Service) ListPending(ctx context.Context, callerID uuid.UUID) ([]models.PendingRequest, error) {
	all, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list pending: %w", err))
	}
	out := make([]models.PendingRequest, 0, len(all))
	for _, req := range all {
		ok, err := s.resolver.CanApprove(ctx, callerID, req.Type, scopeOf(&req))
		if err != nil {
			s.logger.Warn("can-approve check failed", zap.Error(err), zap.String("request_id", req.ID.String()))
			continue
		}
		if ok {
			out = append(out, req)
		}
	}
	return out, nil
}

// Approve commits the request's mutation and resolves it. The approver set
// is recomputed here, at resolution time, so rights revoked since
// submission are honored.
func (s *Service) Approve(ctx context.Context, requestID, approverID uuid.UUID) (*models.PendingRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperror.NewNotFound("request not found")
	}
	if req.Status != models.RequestPending {
		return nil, apperror.NewConflict("request already resolved")
	}

	ok, err := s.resolver.CanApprove(ctx, approverID, req.Type, scopeOf(req))
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("can-approve: %w", err))
	}
	if !ok {
		return nil, apperror.NewForbidden("not an approver for this request")
	}

	if err := s.apply(ctx, req); err != nil {
		return nil, err
	}

	if err := s.repo.Resolve(ctx, req.ID, approverID, models.RequestApproved); err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			return nil, apperror.NewConflict("request already resolved")
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolve request: %w", err))
	}
	req.Status = models.RequestApproved
	req.ResolvedBy = &approverID

	payload := map[string]interface{}{"request_id": req.ID, "request_type": req.Type, "event_id": req.EventID}
	_ = s.notify.Notify(ctx, req.SubjectID, models.NotificationRequestApproved, payload)
	if req.RequesterID != req.SubjectID {
		_ = s.notify.Notify(ctx, req.RequesterID, models.NotificationRequestApproved, payload)
	}
	return req, nil
}

// apply commits the mutation for an approved request. An already-applied
// graph fact (duplicate tag, existing membership) counts as success: the
// request's intent holds.
func (s *Service) apply(ctx context.Context, req *models.PendingRequest) error {
	switch req.Type {
	case models.RequestTag:
		if req.TargetID == nil {
			return apperror.NewInternal(fmt.Errorf("tag request %s has no target", req.ID))
		}
		target := models.TagTarget{Type: req.TargetType, ID: *req.TargetID}
		err := s.graph.ApplyTag(ctx, target, req.SubjectID, req.Role)
		if err != nil && !errors.Is(err, graph.ErrAlreadyTagged) {
			if errors.Is(err, graph.ErrTargetNotFound) {
				return apperror.NewNotFound("tag target no longer exists")
			}
			return apperror.NewInternal(fmt.Errorf("apply tag: %w", err))
		}
		return nil
	case models.RequestTeamMember:
		if req.EventID == nil {
			return apperror.NewInternal(fmt.Errorf("team request %s has no event", req.ID))
		}
		if err := s.graph.AddTeamMember(ctx, *req.EventID, req.SubjectID); err != nil {
			if errors.Is(err, graph.ErrTargetNotFound) {
				return apperror.NewNotFound("event no longer exists")
			}
			return apperror.NewInternal(fmt.Errorf("add team member: %w", err))
		}
		return nil
	case models.RequestGlobalAccess:
		if err := s.users.UpdateAuthLevel(ctx, req.SubjectID, models.LevelAdmin); err != nil {
			return apperror.NewInternal(fmt.Errorf("grant global access: %w", err))
		}
		return nil
	case models.RequestAuthLevelChange:
		if req.NewLevel == nil {
			return apperror.NewInternal(fmt.Errorf("auth-level request %s has no level", req.ID))
		}
		if err := s.users.UpdateAuthLevel(ctx, req.SubjectID, *req.NewLevel); err != nil {
			return apperror.NewInternal(fmt.Errorf("update auth level: %w", err))
		}
		return nil
	default:
		return apperror.NewInternal(fmt.Errorf("unknown request type %q", req.Type))
	}
}

// Reject resolves the request without applying anything and tells the
// requester.
func (s *Service) Reject(ctx context.Context, requestID, approverID uuid.UUID) (*models.PendingRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperror.NewNotFound("request not found")
	}
	if req.Status != models.RequestPending {
		return nil, apperror.NewConflict("request already resolved")
	}

	ok, err := s.resolver.CanApprove(ctx, approverID, req.Type, scopeOf(req))
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("can-approve: %w", err))
	}
	if !ok {
		return nil, apperror.NewForbidden("not an approver for this request")
	}

	if err := s.repo.Resolve(ctx, req.ID, approverID, models.RequestRejected); err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			return nil, apperror.NewConflict("request already resolved")
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolve request: %w", err))
	}
	req.Status = models.RequestRejected
	req.ResolvedBy = &approverID

	_ = s.notify.Notify(ctx, req.RequesterID, models.NotificationRequestRejected, map[string]interface{}{
		"request_id":   req.ID,
		"request_type": req.Type,
		"event_id":     req.EventID,
	})
	return req, nil
}
