package models

import "github.com/google/uuid"

// TargetType identifies the entity kind a tag points at.
type TargetType string

const (
	TargetEvent   TargetType = "event"
	TargetSection TargetType = "section"
	TargetVideo   TargetType = "video"
)

// TagTarget addresses one taggable entity.
type TagTarget struct {
	Type TargetType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

// Tag is a role-labeled relationship from a user to an event, section or
// video. A user holds at most one tag of a given role on a given target.
type Tag struct {
	UserID uuid.UUID  `json:"user_id"`
	Target TagTarget  `json:"target"`
	Role   string     `json:"role"` // storage format, e.g. "DANCER"
}

// TeamMembership marks a user as part of an event's organizing team.
// Distinct from role tags: it grants elevated edit permissions on the event.
type TeamMembership struct {
	EventID uuid.UUID `json:"event_id"`
	UserID  uuid.UUID `json:"user_id"`
}
