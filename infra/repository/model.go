package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile maps an external user id onto the engine-local profile row.
type Profile struct {
	gorm.Model
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
}

// UserStats is the denormalized per-profile gamification row.
type UserStats struct {
	gorm.Model
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	ProfileID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Level            int       `gorm:"not null;default:1"`
	TotalXP          int64     `gorm:"column:total_xp;not null;default:0"`
	XPToNextLevel    int64     `gorm:"column:xp_to_next_level;not null;default:100"`
	CurrentRank      string    `gorm:"type:varchar(32);not null"`
	RankProgress     float64   `gorm:"not null;default:0"`
	CoinsBalance     int64     `gorm:"not null;default:0"`
	CoinsEarnedTotal int64     `gorm:"not null;default:0"`
	CoinsSpentTotal  int64     `gorm:"not null;default:0"`
	CoinsEarnedToday int64     `gorm:"not null;default:0"`
	LastCoinsReset   *time.Time
}

// CoinTransaction is one immutable row of the coin ledger. Amount is signed.
type CoinTransaction struct {
	gorm.Model
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProfileID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	Amount        int64      `gorm:"not null"`
	BalanceBefore int64      `gorm:"not null"`
	BalanceAfter  int64      `gorm:"not null"`
	Kind          string     `gorm:"type:varchar(32);index;not null"`
	Description   string     `gorm:"type:varchar(255)"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid"`
	ReferenceKind *string    `gorm:"type:varchar(32)"`
	Multiplier    float64    `gorm:"not null;default:1"`
	BonusApplied  bool       `gorm:"not null;default:false"`
	Metadata      []byte     `gorm:"type:jsonb"`
}

// Mission is one mission instance assigned to a profile for a period. The
// unique index backs idempotent per-period generation under concurrency.
type Mission struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ProfileID   uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:ux_mission_instance"`
	TemplateID  string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_mission_instance"`
	PeriodKey   string    `gorm:"type:varchar(16);not null;uniqueIndex:ux_mission_instance"`
	Title       string    `gorm:"type:varchar(128);not null"`
	Description string    `gorm:"type:varchar(255)"`
	Type        string    `gorm:"type:varchar(16);index;not null"`
	Status      string    `gorm:"type:varchar(16);index;not null"`
	Progress    float64   `gorm:"not null;default:0"`
	Objectives  []byte    `gorm:"type:jsonb;not null"`
	Rewards     []byte    `gorm:"type:jsonb;not null"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"index;not null"`
	CompletedAt *time.Time
	ClaimedAt   *time.Time
}

// RankRecord is one row of a profile's rank history. At most one row per
// profile carries IsCurrent.
type RankRecord struct {
	gorm.Model
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ProfileID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CurrentRank  string    `gorm:"type:varchar(32);not null"`
	PreviousRank *string   `gorm:"type:varchar(32)"`
	ProgressPct  float64   `gorm:"not null;default:0"`
	XPEarned     int64     `gorm:"column:xp_earned;not null;default:0"`
	CoinsBonus   int64     `gorm:"not null;default:0"`
	IsCurrent    bool      `gorm:"index;not null;default:false"`
	AchievedAt   time.Time `gorm:"not null"`
	Metadata     []byte    `gorm:"type:jsonb"`
}
