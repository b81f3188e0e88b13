// Package events defines the domain events published on the in-process bus.
// Events are observational: handlers log and fan out, they never drive state.
package events

import (
	"time"

	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/google/uuid"
)

// MissionCompletedEvent is emitted when a mission's progress reaches 100%.
type MissionCompletedEvent struct {
	MissionID  uuid.UUID
	ProfileID  uuid.UUID
	TemplateID string
	Rewards    mission.Rewards
	Timestamp  time.Time
}

// RewardsClaimedEvent is emitted after a claim is persisted, regardless of
// whether the best-effort payouts succeeded.
type RewardsClaimedEvent struct {
	MissionID  uuid.UUID
	ProfileID  uuid.UUID
	TemplateID string
	Coins      int64
	XP         int64
	Timestamp  time.Time
}

// RankPromotedEvent is emitted after a promotion is persisted.
type RankPromotedEvent struct {
	ProfileID    uuid.UUID
	PreviousRank rank.Rank
	NewRank      rank.Rank
	CoinsBonus   int64
	XPEarned     int64
	Timestamp    time.Time
}

func (e MissionCompletedEvent) Type() string { return "MissionCompletedEvent" }
func (e RewardsClaimedEvent) Type() string   { return "RewardsClaimedEvent" }
func (e RankPromotedEvent) Type() string     { return "RankPromotedEvent" }
