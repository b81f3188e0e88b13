package repository

import (
	"encoding/json"
	"errors"

	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type rankRepository struct {
	db *gorm.DB
}

// NewRankRepository creates a rank record repository bound to the given session.
func NewRankRepository(db *gorm.DB) repository.RankRepository {
	return &rankRepository{db: db}
}

func (r *rankRepository) GetCurrent(profileID uuid.UUID) (*rank.Record, error) {
	var m RankRecord
	err := r.db.
		Where("profile_id = ? AND is_current = ?", profileID, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rank.ErrNoCurrentRank
		}
		return nil, err
	}
	return rankRecordToDomain(&m)
}

func (r *rankRepository) ListByProfile(profileID uuid.UUID) ([]*rank.Record, error) {
	var ms []RankRecord
	err := r.db.
		Where("profile_id = ?", profileID).
		Order("achieved_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]*rank.Record, 0, len(ms))
	for i := range ms {
		rec, err := rankRecordToDomain(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *rankRepository) Create(rec *rank.Record) error {
	m, err := rankRecordToModel(rec)
	if err != nil {
		return err
	}
	return r.db.Create(m).Error
}

func (r *rankRepository) Update(rec *rank.Record) error {
	m, err := rankRecordToModel(rec)
	if err != nil {
		return err
	}
	return r.db.Model(&RankRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"is_current":   m.IsCurrent,
		"progress_pct": m.ProgressPct,
		"xp_earned":    m.XPEarned,
	}).Error
}

func rankRecordToModel(rec *rank.Record) (*RankRecord, error) {
	m := &RankRecord{
		ID:          rec.ID,
		ProfileID:   rec.ProfileID,
		CurrentRank: string(rec.CurrentRank),
		ProgressPct: rec.ProgressPct,
		XPEarned:    rec.XPEarned,
		CoinsBonus:  rec.CoinsBonus,
		IsCurrent:   rec.IsCurrent,
		AchievedAt:  rec.AchievedAt,
	}
	m.CreatedAt = rec.CreatedAt
	m.UpdatedAt = rec.CreatedAt
	if rec.PreviousRank != nil {
		prev := string(*rec.PreviousRank)
		m.PreviousRank = &prev
	}
	if rec.Metadata != nil {
		raw, err := json.Marshal(rec.Metadata)
		if err != nil {
			return nil, err
		}
		m.Metadata = raw
	}
	return m, nil
}

func rankRecordToDomain(m *RankRecord) (*rank.Record, error) {
	rec := &rank.Record{
		ID:          m.ID,
		ProfileID:   m.ProfileID,
		CurrentRank: rank.Rank(m.CurrentRank),
		ProgressPct: m.ProgressPct,
		XPEarned:    m.XPEarned,
		CoinsBonus:  m.CoinsBonus,
		IsCurrent:   m.IsCurrent,
		AchievedAt:  m.AchievedAt,
		CreatedAt:   m.CreatedAt,
	}
	if m.PreviousRank != nil {
		prev := rank.Rank(*m.PreviousRank)
		rec.PreviousRank = &prev
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &rec.Metadata); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
