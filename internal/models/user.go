package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthLevel is the integer authorization rank gating actions.
type AuthLevel int

const (
	LevelViewer     AuthLevel = 1
	LevelCreator    AuthLevel = 2
	LevelAdmin      AuthLevel = 3
	LevelSuperAdmin AuthLevel = 4
)

// User represents a platform user. Unclaimed users are placeholder records
// created when tagging someone who has not registered yet; a magic link
// claims them.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	AuthLevel AuthLevel `json:"auth_level"`
	Claimed   bool      `json:"claimed"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AuthLevel AuthLevel `json:"auth_level"`
	Claimed   bool      `json:"claimed"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		AuthLevel: u.AuthLevel,
		Claimed:   u.Claimed,
		CreatedAt: u.CreatedAt,
	}
}
