package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a dance competition or show. The graph store holds the event
// node plus its sections, videos, tags and team edges; Postgres mirrors the
// row for picture bookkeeping and listings.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CityID      uuid.UUID  `json:"city_id"`
	CityName    string     `json:"city_name,omitempty"`
	Styles      []string   `json:"styles,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Section is a sub-division of an event (e.g. a battle round). Belongs to
// exactly one event.
type Section struct {
	ID      uuid.UUID `json:"id"`
	EventID uuid.UUID `json:"event_id"`
	Title   string    `json:"title"`
	Bracket string    `json:"bracket,omitempty"` // optional bracket metadata, e.g. "top16"
	Order   int       `json:"order"`
}

// Video is a media item within a section, taggable with roles and a winner
// designation.
type Video struct {
	ID        uuid.UUID `json:"id"`
	SectionID uuid.UUID `json:"section_id"`
	EventID   uuid.UUID `json:"event_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	AddedBy   uuid.UUID `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPicture is the relational row for an S3-stored event picture.
// Deleting an event cascades to its picture rows and objects.
type EventPicture struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	S3Key     string    `json:"s3_key"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// City is a graph catalog entry users browse events by.
type City struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Country string    `json:"country,omitempty"`
}

// Style is a dance style catalog entry (breaking, popping, ...).
type Style struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
