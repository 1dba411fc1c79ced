// Package tagging contains the request orchestrator: the entry points that
// validate tagging input, check permissions, mutate graph relationships and
// fan out notifications. Batch operations report per-user outcomes; a
// single user's failure never aborts the batch.
package tagging

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherhub/backend/internal/apperror"
	"github.com/cypherhub/backend/internal/approvals"
	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/internal/roles"
)

// Graph is the subset of graph operations the orchestrator needs.
type Graph interface {
	EventExists(ctx context.Context, eventID uuid.UUID) (bool, error)
	SectionExistsInEvent(ctx context.Context, eventID, sectionID uuid.UUID) (bool, error)
	VideoExistsInEvent(ctx context.Context, eventID, videoID uuid.UUID) (bool, error)
	ApplyTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error
	RemoveTag(ctx context.Context, target models.TagTarget, userID uuid.UUID, role string) error
	IsUserTaggedInVideo(ctx context.Context, videoID, userID uuid.UUID, role string) (bool, error)
	TagsOnTarget(ctx context.Context, target models.TagTarget) ([]models.Tag, error)
	EventCreator(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	EventCity(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	EventTitle(ctx context.Context, eventID uuid.UUID) (string, error)
	IsTeamMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	HasCityAccess(ctx context.Context, cityID, userID uuid.UUID) (bool, error)
}

// Notifier writes notifications; satisfied by the notifications writer.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype string, payload interface{}) error
	NotifyAll(ctx context.Context, userIDs []uuid.UUID, ntype string, payload interface{})
}

// RequestFiler files pending requests for actors who cannot tag directly;
// satisfied by the approvals service.
type RequestFiler interface {
	Submit(ctx context.Context, req *models.PendingRequest) error
}

// ApproverReader resolves the approver set for fan-out; satisfied by the
// approvals resolver.
type ApproverReader interface {
	Approvers(ctx context.Context, reqType models.RequestType, scope approvals.Scope) ([]uuid.UUID, error)
}

// Actor is the caller with their resolved authorization level. The level
// is passed explicitly, never read from ambient state.
type Actor struct {
	ID    uuid.UUID
	Level models.AuthLevel
}

// Input is the parsed tag-users request. Exactly one scope applies: event
// when both optional ids are nil, section or video otherwise.
type Input struct {
	EventID   uuid.UUID
	SectionID *uuid.UUID
	VideoID   *uuid.UUID
	Role      string // storage format
	UserIDs   []uuid.UUID
}

// Result is the aggregate batch outcome.
type Result struct {
	Succeeded     []uuid.UUID `json:"succeeded"`
	AlreadyTagged []uuid.UUID `json:"already_tagged"`
	Failed        []uuid.UUID `json:"failed"`
	Pending       []uuid.UUID `json:"pending,omitempty"`
}

// Partial reports whether any per-user outcome failed.
func (r *Result) Partial() bool { return len(r.Failed) > 0 }

// Orchestrator validates, authorizes and executes tagging requests.
type Orchestrator struct {
	graph     Graph
	notify    Notifier
	requests  RequestFiler
	approvers ApproverReader
	logger    *zap.Logger
}

// NewOrchestrator creates the tagging orchestrator.
func NewOrchestrator(g Graph, notify Notifier, requests RequestFiler, approvers ApproverReader, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{graph: g, notify: notify, requests: requests, approvers: approvers, logger: logger}
}

// TagUsers runs the shared protocol: structural validation, target
// existence, per-user tag application, notification fan-out. Actors who
// are not creator, team member, city admin or admin-level file pending
// requests instead of mutating.
func (o *Orchestrator) TagUsers(ctx context.Context, actor Actor, in Input) (*Result, error) {
	if err := o.validate(in); err != nil {
		return nil, err
	}
	target, err := o.resolveTarget(ctx, in)
	if err != nil {
		return nil, err
	}

	authorized, err := o.canActDirectly(ctx, actor, in.EventID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("authorize: %w", err))
	}
	if !authorized {
		return o.fileRequests(ctx, actor, in, target)
	}

	title, err := o.graph.EventTitle(ctx, in.EventID)
	if err != nil {
		o.logger.Warn("event title lookup failed", zap.Error(err), zap.String("event_id", in.EventID.String()))
	}

	result := &Result{Succeeded: []uuid.UUID{}, AlreadyTagged: []uuid.UUID{}, Failed: []uuid.UUID{}}
	// Sequential on purpose: batches are small and concurrent writes would
	// contend on the target node.
	for _, userID := range in.UserIDs {
		switch err := o.graph.ApplyTag(ctx, target, userID, in.Role); {
		case err == nil:
			result.Succeeded = append(result.Succeeded, userID)
			if notifyErr := o.notify.Notify(ctx, userID, models.NotificationTagged, map[string]interface{}{
				"event_id":    in.EventID,
				"event_title": title,
				"target_type": target.Type,
				"target_id":   target.ID,
				"role":        in.Role,
				"tagged_by":   actor.ID,
			}); notifyErr != nil {
				o.logger.Error("tag notification failed", zap.Error(notifyErr), zap.String("user_id", userID.String()))
			}
		case errors.Is(err, graph.ErrAlreadyTagged):
			result.AlreadyTagged = append(result.AlreadyTagged, userID)
		case errors.Is(err, graph.ErrTargetNotFound):
			// Target checked above; disappearing mid-batch means deletion
			// raced us. Terminal for the rest of the batch too.
			return nil, apperror.NewNotFound("tag target not found")
		default:
			o.logger.Error("apply tag failed", zap.Error(err),
				zap.String("user_id", userID.String()), zap.String("event_id", in.EventID.String()))
			result.Failed = append(result.Failed, userID)
		}
	}

	o.notifyApprovers(ctx, actor, in, target, title, result.Succeeded)
	return result, nil
}

func (o *Orchestrator) validate(in Input) error {
	if in.EventID == uuid.Nil {
		return apperror.NewValidation("eventId is required")
	}
	if len(in.UserIDs) == 0 {
		return apperror.NewValidation("userIds must not be empty")
	}
	if in.SectionID != nil && in.VideoID != nil {
		return apperror.NewValidation("specify sectionId or videoId, not both")
	}
	if !roles.IsValid(in.Role) {
		return apperror.NewValidation(fmt.Sprintf("unknown role %q", in.Role))
	}
	return nil
}

// resolveTarget verifies existence and returns the tag target for the
// requested scope.
func (o *Orchestrator) resolveTarget(ctx context.Context, in Input) (models.TagTarget, error) {
	exists, err := o.graph.EventExists(ctx, in.EventID)
	if err != nil {
		return models.TagTarget{}, apperror.NewInternal(fmt.Errorf("event exists: %w", err))
	}
	if !exists {
		return models.TagTarget{}, apperror.NewNotFound("event not found")
	}

	switch {
	case in.VideoID != nil:
		ok, err := o.graph.VideoExistsInEvent(ctx, in.EventID, *in.VideoID)
		if err != nil {
			return models.TagTarget{}, apperror.NewInternal(fmt.Errorf("video exists: %w", err))
		}
		if !ok {
			return models.TagTarget{}, apperror.NewNotFound("video not found in event")
		}
		return models.TagTarget{Type: models.TargetVideo, ID: *in.VideoID}, nil
	case in.SectionID != nil:
		ok, err := o.graph.SectionExistsInEvent(ctx, in.EventID, *in.SectionID)
		if err != nil {
			return models.TagTarget{}, apperror.NewInternal(fmt.Errorf("section exists: %w", err))
		}
		if !ok {
			return models.TagTarget{}, apperror.NewNotFound("section not found in event")
		}
		return models.TagTarget{Type: models.TargetSection, ID: *in.SectionID}, nil
	default:
		return models.TagTarget{Type: models.TargetEvent, ID: in.EventID}, nil
	}
}

// canActDirectly reports whether the actor may mutate without approval:
// admin level and above, the event creator, a team member, or a city admin
// of the event's city.
func (o *Orchestrator) canActDirectly(ctx context.Context, actor Actor, eventID uuid.UUID) (bool, error) {
	if actor.Level >= models.LevelAdmin {
		return true, nil
	}
	creator, err := o.graph.EventCreator(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("event creator: %w", err)
	}
	if creator == actor.ID {
		return true, nil
	}
	member, err := o.graph.IsTeamMember(ctx, eventID, actor.ID)
	if err != nil {
		return false, fmt.Errorf("team member: %w", err)
	}
	if member {
		return true, nil
	}
	cityID, err := o.graph.EventCity(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("event city: %w", err)
	}
	return o.graph.HasCityAccess(ctx, cityID, actor.ID)
}

// fileRequests files one pending tag request per target user instead of
// mutating. Submit notifies the approvers.
func (o *Orchestrator) fileRequests(ctx context.Context, actor Actor, in Input, target models.TagTarget) (*Result, error) {
	result := &Result{Succeeded: []uuid.UUID{}, AlreadyTagged: []uuid.UUID{}, Failed: []uuid.UUID{}}
	eventID := in.EventID
	for _, userID := range in.UserIDs {
		targetID := target.ID
		req := &models.PendingRequest{
			Type:        models.RequestTag,
			RequesterID: actor.ID,
			SubjectID:   userID,
			EventID:     &eventID,
			Role:        in.Role,
			TargetType:  target.Type,
			TargetID:    &targetID,
		}
		if err := o.requests.Submit(ctx, req); err != nil {
			o.logger.Error("file tag request failed", zap.Error(err), zap.String("user_id", userID.String()))
			result.Failed = append(result.Failed, userID)
			continue
		}
		result.Pending = append(result.Pending, userID)
	}
	return result, nil
}

// notifyApprovers tells the approver set about tags the actor made on
// users other than themselves. The actor is excluded: they already know.
func (o *Orchestrator) notifyApprovers(ctx context.Context, actor Actor, in Input, target models.TagTarget, title string, succeeded []uuid.UUID) {
	tagged := make([]uuid.UUID, 0, len(succeeded))
	for _, id := range succeeded {
		if id != actor.ID {
			tagged = append(tagged, id)
		}
	}
	if len(tagged) == 0 {
		return
	}

	eventID := in.EventID
	approverIDs, err := o.approvers.Approvers(ctx, models.RequestTag, approvals.Scope{EventID: &eventID})
	if err != nil {
		o.logger.Warn("approver resolution for fan-out failed", zap.Error(err), zap.String("event_id", in.EventID.String()))
		return
	}
	recipients := approverIDs[:0:0]
	for _, id := range approverIDs {
		if id != actor.ID {
			recipients = append(recipients, id)
		}
	}
	o.notify.NotifyAll(ctx, recipients, models.NotificationTagCreated, map[string]interface{}{
		"event_id":    in.EventID,
		"event_title": title,
		"target_type": target.Type,
		"target_id":   target.ID,
		"role":        in.Role,
		"tagged_by":   actor.ID,
		"user_ids":    tagged,
	})
}

// TagsOn lists the tags on one target for display.
func (o *Orchestrator) TagsOn(ctx context.Context, target models.TagTarget) ([]models.Tag, error) {
	tags, err := o.graph.TagsOnTarget(ctx, target)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list tags: %w", err))
	}
	return tags, nil
}

// RemoveSelfWinnerTag removes a winner tag from a video. No approver
// resolution: a user may always remove a winner tag referring to
// themselves, and only themselves.
func (o *Orchestrator) RemoveSelfWinnerTag(ctx context.Context, callerID, subjectID, videoID uuid.UUID) error {
	if callerID != subjectID {
		return apperror.NewUnauthorized("only the tagged user can remove their winner tag")
	}
	tagged, err := o.graph.IsUserTaggedInVideo(ctx, videoID, subjectID, roles.Winner)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("winner tag lookup: %w", err))
	}
	if !tagged {
		return apperror.NewNotFound("winner tag not found")
	}
	target := models.TagTarget{Type: models.TargetVideo, ID: videoID}
	if err := o.graph.RemoveTag(ctx, target, subjectID, roles.Winner); err != nil {
		if errors.Is(err, graph.ErrTagNotFound) {
			return apperror.NewNotFound("winner tag not found")
		}
		return apperror.NewInternal(fmt.Errorf("remove winner tag: %w", err))
	}
	return nil
}
