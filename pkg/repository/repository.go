package repository

import (
	"time"

	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/gamilit/progression/pkg/domain/profile"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/domain/stats"
	"github.com/google/uuid"
)

// ProfileRepository defines the interface for profile data access operations.
type ProfileRepository interface {
	// Resolve maps an external user id to its profile.
	Resolve(userID uuid.UUID) (*profile.Profile, error)
	Get(id uuid.UUID) (*profile.Profile, error)
	Create(p *profile.Profile) error
}

// StatsRepository defines the interface for user stats data access operations.
type StatsRepository interface {
	GetByProfile(profileID uuid.UUID) (*stats.UserStats, error)
	Create(s *stats.UserStats) error
	Update(s *stats.UserStats) error
}

// LedgerRepository defines the interface for coin transaction data access
// operations. Entries are append-only; there is no update or delete.
type LedgerRepository interface {
	Create(e *ledger.Entry) error
	Get(id uuid.UUID) (*ledger.Entry, error)
	// ListByProfile returns entries newest first.
	ListByProfile(profileID uuid.UUID, limit, offset int) ([]*ledger.Entry, error)
	// SumByProfile folds all entry amounts for a profile.
	SumByProfile(profileID uuid.UUID) (int64, error)
	// SumByProfileSince folds amounts of a given sign created at or after from.
	// Positive credits when earned is true, negative debits otherwise.
	SumByProfileSince(profileID uuid.UUID, from time.Time, earned bool) (int64, error)
	// CountByProfileSince counts entries created at or after from.
	CountByProfileSince(profileID uuid.UUID, from time.Time) (int64, error)
}

// MissionRepository defines the interface for mission data access operations.
type MissionRepository interface {
	Get(id uuid.UUID) (*mission.Mission, error)
	// Create persists a new instance. A (profile, template, period) collision
	// returns mission.ErrDuplicateInstance.
	Create(m *mission.Mission) error
	Update(m *mission.Mission) error
	// ListByProfileAndType returns a profile's missions for the current
	// generation scope of the given type, newest first.
	ListByProfileAndType(profileID uuid.UUID, t mission.Type, periodKey string) ([]*mission.Mission, error)
	ListByProfile(profileID uuid.UUID) ([]*mission.Mission, error)
	// ListExpiring returns active and in_progress missions whose end date has
	// passed.
	ListExpiring(now time.Time, limit int) ([]*mission.Mission, error)
}

// RankRepository defines the interface for rank record data access operations.
type RankRepository interface {
	// GetCurrent returns the record flagged current for a profile.
	GetCurrent(profileID uuid.UUID) (*rank.Record, error)
	// ListByProfile returns a profile's full rank history, newest first.
	ListByProfile(profileID uuid.UUID) ([]*rank.Record, error)
	Create(r *rank.Record) error
	Update(r *rank.Record) error
}
