package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification types written by the orchestrator and approval workflow.
const (
	NotificationTagged          = "tagged"
	NotificationTagCreated      = "tag_created"       // to approvers: a tag was made on their event
	NotificationPendingApproval = "pending_approval"  // to approvers: a request awaits them
	NotificationRequestApproved = "request_approved"
	NotificationRequestRejected = "request_rejected"
	NotificationTeamMemberAdded = "team_member_added"
	NotificationAuthLevelChange = "auth_level_changed"
)

// Notification is a relational row representing something requiring the
// recipient's attention. Created by the system, mutated (marked old) only
// by the recipient.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	IsOld     bool            `json:"is_old"`
	CreatedAt time.Time       `json:"created_at"`
}
