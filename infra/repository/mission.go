package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type missionRepository struct {
	db *gorm.DB
}

// NewMissionRepository creates a mission repository bound to the given session.
func NewMissionRepository(db *gorm.DB) repository.MissionRepository {
	return &missionRepository{db: db}
}

func (r *missionRepository) Get(id uuid.UUID) (*mission.Mission, error) {
	var m Mission
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mission.ErrNotFound
		}
		return nil, err
	}
	return missionToDomain(&m)
}

// Create relies on ux_mission_instance and the session's TranslateError to
// surface period collisions as ErrDuplicateInstance.
func (r *missionRepository) Create(dm *mission.Mission) error {
	m, err := missionToModel(dm)
	if err != nil {
		return err
	}
	if err := r.db.Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return mission.ErrDuplicateInstance
		}
		return err
	}
	return nil
}

func (r *missionRepository) Update(dm *mission.Mission) error {
	m, err := missionToModel(dm)
	if err != nil {
		return err
	}
	return r.db.Model(&Mission{}).Where("id = ?", dm.ID).Updates(map[string]any{
		"status":       m.Status,
		"progress":     m.Progress,
		"objectives":   m.Objectives,
		"completed_at": m.CompletedAt,
		"claimed_at":   m.ClaimedAt,
		"updated_at":   dm.UpdatedAt,
	}).Error
}

func (r *missionRepository) ListByProfileAndType(profileID uuid.UUID, t mission.Type, periodKey string) ([]*mission.Mission, error) {
	var ms []Mission
	err := r.db.
		Where("profile_id = ? AND type = ? AND period_key = ?", profileID, string(t), periodKey).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return missionsToDomain(ms)
}

func (r *missionRepository) ListByProfile(profileID uuid.UUID) ([]*mission.Mission, error) {
	var ms []Mission
	err := r.db.
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return missionsToDomain(ms)
}

func (r *missionRepository) ListExpiring(now time.Time, limit int) ([]*mission.Mission, error) {
	var ms []Mission
	q := r.db.
		Where("status IN ? AND end_date < ?",
			[]string{string(mission.StatusActive), string(mission.StatusInProgress)}, now).
		Order("end_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return missionsToDomain(ms)
}

func missionsToDomain(ms []Mission) ([]*mission.Mission, error) {
	out := make([]*mission.Mission, 0, len(ms))
	for i := range ms {
		dm, err := missionToDomain(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, dm)
	}
	return out, nil
}

func missionToModel(dm *mission.Mission) (*Mission, error) {
	objectives, err := json.Marshal(dm.Objectives)
	if err != nil {
		return nil, err
	}
	rewards, err := json.Marshal(dm.Rewards)
	if err != nil {
		return nil, err
	}
	m := &Mission{
		ID:          dm.ID,
		ProfileID:   dm.ProfileID,
		TemplateID:  dm.TemplateID,
		PeriodKey:   dm.PeriodKey,
		Title:       dm.Title,
		Description: dm.Description,
		Type:        string(dm.Type),
		Status:      string(dm.Status),
		Progress:    dm.Progress,
		Objectives:  objectives,
		Rewards:     rewards,
		StartDate:   dm.StartDate,
		EndDate:     dm.EndDate,
		CompletedAt: dm.CompletedAt,
		ClaimedAt:   dm.ClaimedAt,
	}
	m.CreatedAt = dm.CreatedAt
	m.UpdatedAt = dm.UpdatedAt
	return m, nil
}

func missionToDomain(m *Mission) (*mission.Mission, error) {
	dm := &mission.Mission{
		ID:          m.ID,
		ProfileID:   m.ProfileID,
		TemplateID:  m.TemplateID,
		Title:       m.Title,
		Description: m.Description,
		Type:        mission.Type(m.Type),
		Status:      mission.Status(m.Status),
		Progress:    m.Progress,
		PeriodKey:   m.PeriodKey,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		CompletedAt: m.CompletedAt,
		ClaimedAt:   m.ClaimedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if err := json.Unmarshal(m.Objectives, &dm.Objectives); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(m.Rewards, &dm.Rewards); err != nil {
		return nil, err
	}
	return dm, nil
}
