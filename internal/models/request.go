package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestType classifies a pending request by what it would mutate.
type RequestType string

const (
	RequestTag             RequestType = "tag"
	RequestTeamMember      RequestType = "team_member"
	RequestGlobalAccess    RequestType = "global_access"
	RequestAuthLevelChange RequestType = "auth_level_change"
)

// RequestStatus is the pending-request lifecycle state. Pending is the only
// non-terminal state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// PendingRequest is an action awaiting confirmation by an authorized
// approver before the mutation is committed. Created on submission,
// resolved exactly once.
type PendingRequest struct {
	ID          uuid.UUID     `json:"id"`
	Type        RequestType   `json:"type"`
	RequesterID uuid.UUID     `json:"requester_id"`
	SubjectID   uuid.UUID     `json:"subject_id"` // the user the mutation is about
	EventID     *uuid.UUID    `json:"event_id,omitempty"`
	CityID      *uuid.UUID    `json:"city_id,omitempty"`
	Role        string        `json:"role,omitempty"`       // storage format, tag requests only
	TargetType  TargetType    `json:"target_type,omitempty"`
	TargetID    *uuid.UUID    `json:"target_id,omitempty"`
	NewLevel    *AuthLevel    `json:"new_level,omitempty"` // auth_level_change only
	Status      RequestStatus `json:"status"`
	ResolvedBy  *uuid.UUID    `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
