// Package profile maps external user identities onto engine-local profiles.
// All other aggregates key on the profile id, never on the external id.
package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no profile exists for an external user id.
var ErrNotFound = errors.New("profile not found")

// Profile is the engine-local identity for one external user.
type Profile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a profile for an external user id.
func New(userID uuid.UUID, now time.Time) *Profile {
	return &Profile{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
