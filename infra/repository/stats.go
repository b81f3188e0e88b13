package repository

import (
	"errors"

	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/domain/stats"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a stats repository bound to the given session.
func NewStatsRepository(db *gorm.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) GetByProfile(profileID uuid.UUID) (*stats.UserStats, error) {
	var m UserStats
	if err := r.db.Where("profile_id = ?", profileID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stats.ErrNotFound
		}
		return nil, err
	}
	return statsToDomain(&m), nil
}

func (r *statsRepository) Create(s *stats.UserStats) error {
	m := statsToModel(s)
	return r.db.Create(m).Error
}

func (r *statsRepository) Update(s *stats.UserStats) error {
	m := statsToModel(s)
	return r.db.Model(&UserStats{}).Where("id = ?", s.ID).Updates(map[string]any{
		"level":              m.Level,
		"total_xp":           m.TotalXP,
		"xp_to_next_level":   m.XPToNextLevel,
		"current_rank":       m.CurrentRank,
		"rank_progress":      m.RankProgress,
		"coins_balance":      m.CoinsBalance,
		"coins_earned_total": m.CoinsEarnedTotal,
		"coins_spent_total":  m.CoinsSpentTotal,
		"coins_earned_today": m.CoinsEarnedToday,
		"last_coins_reset":   m.LastCoinsReset,
		"updated_at":         s.UpdatedAt,
	}).Error
}

func statsToModel(s *stats.UserStats) *UserStats {
	m := &UserStats{
		ID:               s.ID,
		ProfileID:        s.ProfileID,
		Level:            s.Level,
		TotalXP:          s.TotalXP,
		XPToNextLevel:    s.XPToNextLevel,
		CurrentRank:      string(s.CurrentRank),
		RankProgress:     s.RankProgress,
		CoinsBalance:     s.CoinsBalance,
		CoinsEarnedTotal: s.CoinsEarnedTotal,
		CoinsSpentTotal:  s.CoinsSpentTotal,
		CoinsEarnedToday: s.CoinsEarnedToday,
		LastCoinsReset:   s.LastCoinsReset,
	}
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
	return m
}

func statsToDomain(m *UserStats) *stats.UserStats {
	return &stats.UserStats{
		ID:               m.ID,
		ProfileID:        m.ProfileID,
		Level:            m.Level,
		TotalXP:          m.TotalXP,
		XPToNextLevel:    m.XPToNextLevel,
		CurrentRank:      rank.Rank(m.CurrentRank),
		RankProgress:     m.RankProgress,
		CoinsBalance:     m.CoinsBalance,
		CoinsEarnedTotal: m.CoinsEarnedTotal,
		CoinsSpentTotal:  m.CoinsSpentTotal,
		CoinsEarnedToday: m.CoinsEarnedToday,
		LastCoinsReset:   m.LastCoinsReset,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
