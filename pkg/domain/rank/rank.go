// Package rank defines the ordered Maya rank ladder and the per-user rank
// history records that track promotion through it.
package rank

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRank is returned when a rank value is not part of the ladder.
	// This indicates a programming error, not user input.
	ErrInvalidRank = errors.New("invalid rank")

	// ErrNoCurrentRank is returned when a user has no rank record flagged as
	// current. Users get their first record at account initialization.
	ErrNoCurrentRank = errors.New("no current rank record")

	// ErrNotEligible is returned when a promotion is attempted without the
	// required experience.
	ErrNotEligible = errors.New("not eligible for promotion")

	// ErrAlreadyMaxRank is returned when promoting a user who holds the
	// terminal rank.
	ErrAlreadyMaxRank = errors.New("already at maximum rank")

	// ErrRecordNotFound is returned when a rank record lookup fails.
	ErrRecordNotFound = errors.New("rank record not found")
)

// Rank is one value of the ordered ladder.
type Rank string

const (
	Ajaw        Rank = "Ajaw"
	Nacom       Rank = "Nacom"
	AhKin       Rank = "Ah K'in"
	HalachUinic Rank = "Halach Uinic"
	Kukulkan    Rank = "K'uk'ulkan"
)

// Config is the static ladder entry for a single rank. XPMax is inclusive;
// the terminal rank is unbounded above.
type Config struct {
	Rank        Rank
	XPMin       int64
	XPMax       int64
	Unbounded   bool
	CoinsBonus  int64
	Name        string
	Description string
	Order       int
}

// ladder is contiguous and non-overlapping; exactly the terminal entry is
// unbounded. Values mirror the production seed data (v2.0).
var ladder = []Config{
	{Rank: Ajaw, XPMin: 0, XPMax: 499, CoinsBonus: 0,
		Name: "Ajaw", Description: "Lord - the path of knowledge begins", Order: 1},
	{Rank: Nacom, XPMin: 500, XPMax: 999, CoinsBonus: 100,
		Name: "Nacom", Description: "War captain - warrior in training", Order: 2},
	{Rank: AhKin, XPMin: 1000, XPMax: 1499, CoinsBonus: 250,
		Name: "Ah K'in", Description: "Priest of the sun - guide of knowledge", Order: 3},
	{Rank: HalachUinic, XPMin: 1500, XPMax: 2249, CoinsBonus: 500,
		Name: "Halach Uinic", Description: "True man - leader of the community", Order: 4},
	{Rank: Kukulkan, XPMin: 2250, XPMax: 0, Unbounded: true, CoinsBonus: 1000,
		Name: "K'uk'ulkan", Description: "Feathered serpent - legendary master", Order: 5},
}

// ConfigFor returns the ladder entry for the given rank.
func ConfigFor(r Rank) (Config, error) {
	for _, c := range ladder {
		if c.Rank == r {
			return c, nil
		}
	}
	return Config{}, ErrInvalidRank
}

// Next returns the rank one step above r, or false for the terminal rank.
func Next(r Rank) (Rank, bool) {
	for i, c := range ladder {
		if c.Rank == r {
			if i == len(ladder)-1 {
				return "", false
			}
			return ladder[i+1].Rank, true
		}
	}
	return "", false
}

// All returns the full ladder in ordinal order.
func All() []Config {
	out := make([]Config, len(ladder))
	copy(out, ladder)
	return out
}

// Initial returns the rank assigned at account initialization.
func Initial() Rank {
	return ladder[0].Rank
}

// Progress describes how far a user has advanced toward the next rank.
type Progress struct {
	CurrentRank    Rank
	NextRank       *Rank
	Percentage     int
	XPCurrent      int64
	XPRequired     int64
	XPRemaining    int64
	BonusOnPromote int64
	IsMaxRank      bool
}

// ProgressToward computes promotion progress for a user holding the given
// rank with the given total experience. For the terminal rank the result is
// a fixed 100% with no next rank. Otherwise the percentage is the linear
// interpolation of xp between the current rank's minimum and the next
// rank's minimum, floored and clamped to [0, 100].
func ProgressToward(current Rank, xp int64) (Progress, error) {
	cfg, err := ConfigFor(current)
	if err != nil {
		return Progress{}, err
	}
	next, ok := Next(current)
	if !ok {
		return Progress{
			CurrentRank: current,
			Percentage:  100,
			XPCurrent:   xp,
			XPRequired:  cfg.XPMin,
			IsMaxRank:   true,
		}, nil
	}
	nextCfg, err := ConfigFor(next)
	if err != nil {
		return Progress{}, err
	}

	required := nextCfg.XPMin
	remaining := required - xp
	if remaining < 0 {
		remaining = 0
	}

	rangeTotal := nextCfg.XPMin - cfg.XPMin
	inRange := xp - cfg.XPMin
	pct := int(float64(inRange) / float64(rangeTotal) * 100)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return Progress{
		CurrentRank:    current,
		NextRank:       &next,
		Percentage:     pct,
		XPCurrent:      xp,
		XPRequired:     required,
		XPRemaining:    remaining,
		BonusOnPromote: nextCfg.CoinsBonus,
		IsMaxRank:      false,
	}, nil
}

// Record is one row of a user's rank history. Exactly one record per user
// has IsCurrent set; promotions flip the old record and insert a new one in
// the same transaction.
type Record struct {
	ID           uuid.UUID
	ProfileID    uuid.UUID
	CurrentRank  Rank
	PreviousRank *Rank
	ProgressPct  float64
	XPEarned     int64
	CoinsBonus   int64
	IsCurrent    bool
	AchievedAt   time.Time
	Metadata     map[string]any
	CreatedAt    time.Time
}

// NewInitialRecord builds the first rank record for a freshly initialized
// profile.
func NewInitialRecord(profileID uuid.UUID, now time.Time) *Record {
	return &Record{
		ID:          uuid.New(),
		ProfileID:   profileID,
		CurrentRank: Initial(),
		IsCurrent:   true,
		AchievedAt:  now,
		CreatedAt:   now,
	}
}
