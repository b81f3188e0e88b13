// Package stats holds the per-user gamification aggregate: the denormalized
// coin balance the ledger keeps reconcilable, total experience, level and
// the current rank snapshot.
package stats

import (
	"errors"
	"time"

	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a user has no stats row. Accounts are
	// initialized by an external collaborator before the engine sees them.
	ErrNotFound = errors.New("user stats not found")

	// ErrXPNotPositive is returned when an experience grant is not positive.
	ErrXPNotPositive = errors.New("xp amount must be positive")
)

// xpPerLevel is the flat per-level experience step used to derive Level and
// XPToNextLevel from TotalXP.
const xpPerLevel = 100

// UserStats is the 1:1 aggregate row per profile. Coin fields are owned by
// the ledger; XP and rank fields by the rank/stats services. The ledger is
// the source of truth for coins: CoinsBalance must equal the fold of all
// ledger entries from zero.
type UserStats struct {
	ID               uuid.UUID
	ProfileID        uuid.UUID
	Level            int
	TotalXP          int64
	XPToNextLevel    int64
	CurrentRank      rank.Rank
	RankProgress     float64
	CoinsBalance     int64
	CoinsEarnedTotal int64
	CoinsSpentTotal  int64
	CoinsEarnedToday int64
	LastCoinsReset   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// New builds a zeroed stats row for a freshly initialized profile. The
// welcome bonus is paid through the ledger afterwards, not baked in here,
// so that folding the ledger from zero always reproduces the balance.
func New(profileID uuid.UUID, now time.Time) *UserStats {
	return &UserStats{
		ID:            uuid.New(),
		ProfileID:     profileID,
		Level:         1,
		XPToNextLevel: xpPerLevel,
		CurrentRank:   rank.Initial(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyCredit adds amount coins, updating the lifetime and daily earned
// totals. Returns the balance before and after.
func (s *UserStats) ApplyCredit(amount int64, now time.Time) (before, after int64, err error) {
	before = s.CoinsBalance
	after, err = ledger.CheckCredit(before, amount)
	if err != nil {
		return 0, 0, err
	}
	s.resetDailyIfNeeded(now)
	s.CoinsBalance = after
	s.CoinsEarnedTotal += amount
	s.CoinsEarnedToday += amount
	s.UpdatedAt = now
	return before, after, nil
}

// ApplyDebit removes amount coins, updating the lifetime spent total.
// Returns the balance before and after; the row is untouched on error.
func (s *UserStats) ApplyDebit(amount int64, now time.Time) (before, after int64, err error) {
	before = s.CoinsBalance
	after, err = ledger.CheckDebit(before, amount)
	if err != nil {
		return 0, 0, err
	}
	s.CoinsBalance = after
	s.CoinsSpentTotal += amount
	s.UpdatedAt = now
	return before, after, nil
}

// AddXP accumulates experience and rederives level and rank progress.
func (s *UserStats) AddXP(amount int64, now time.Time) error {
	if amount <= 0 {
		return ErrXPNotPositive
	}
	s.TotalXP += amount
	s.Level = int(s.TotalXP/xpPerLevel) + 1
	s.XPToNextLevel = int64(s.Level)*xpPerLevel - s.TotalXP
	if p, err := rank.ProgressToward(s.CurrentRank, s.TotalXP); err == nil {
		s.RankProgress = float64(p.Percentage)
	}
	s.UpdatedAt = now
	return nil
}

// SetCurrentRank records a promotion on the denormalized snapshot.
func (s *UserStats) SetCurrentRank(r rank.Rank, now time.Time) {
	s.CurrentRank = r
	if p, err := rank.ProgressToward(r, s.TotalXP); err == nil {
		s.RankProgress = float64(p.Percentage)
	}
	s.UpdatedAt = now
}

// resetDailyIfNeeded zeroes the earned-today counter once 24h have passed
// since the last reset.
func (s *UserStats) resetDailyIfNeeded(now time.Time) {
	if s.LastCoinsReset == nil {
		s.CoinsEarnedToday = 0
		t := now
		s.LastCoinsReset = &t
		return
	}
	if now.Sub(*s.LastCoinsReset) >= 24*time.Hour {
		s.CoinsEarnedToday = 0
		t := now
		s.LastCoinsReset = &t
	}
}
