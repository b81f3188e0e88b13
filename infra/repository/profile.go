package repository

import (
	"errors"

	"github.com/gamilit/progression/pkg/domain/profile"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a profile repository bound to the given session.
func NewProfileRepository(db *gorm.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Resolve(userID uuid.UUID) (*profile.Profile, error) {
	var m Profile
	if err := r.db.Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}
	return profileToDomain(&m), nil
}

func (r *profileRepository) Get(id uuid.UUID) (*profile.Profile, error) {
	var m Profile
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}
	return profileToDomain(&m), nil
}

func (r *profileRepository) Create(p *profile.Profile) error {
	m := Profile{ID: p.ID, UserID: p.UserID}
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	return r.db.Create(&m).Error
}

func profileToDomain(m *Profile) *profile.Profile {
	return &profile.Profile{
		ID:        m.ID,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
