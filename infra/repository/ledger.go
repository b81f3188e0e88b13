package repository

import (
	"encoding/json"
	"time"

	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a ledger repository bound to the given session.
func NewLedgerRepository(db *gorm.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(e *ledger.Entry) error {
	m, err := entryToModel(e)
	if err != nil {
		return err
	}
	return r.db.Create(m).Error
}

func (r *ledgerRepository) Get(id uuid.UUID) (*ledger.Entry, error) {
	var m CoinTransaction
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return entryToDomain(&m)
}

func (r *ledgerRepository) ListByProfile(profileID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	var ms []CoinTransaction
	q := r.db.Where("profile_id = ?", profileID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.Entry, 0, len(ms))
	for i := range ms {
		e, err := entryToDomain(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *ledgerRepository) SumByProfile(profileID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.Model(&CoinTransaction{}).
		Where("profile_id = ?", profileID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *ledgerRepository) SumByProfileSince(profileID uuid.UUID, from time.Time, earned bool) (int64, error) {
	cmp := "amount > 0"
	if !earned {
		cmp = "amount < 0"
	}
	var sum int64
	err := r.db.Model(&CoinTransaction{}).
		Where("profile_id = ? AND created_at >= ?", profileID, from).
		Where(cmp).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *ledgerRepository) CountByProfileSince(profileID uuid.UUID, from time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&CoinTransaction{}).
		Where("profile_id = ? AND created_at >= ?", profileID, from).
		Count(&count).Error
	return count, err
}

func entryToModel(e *ledger.Entry) (*CoinTransaction, error) {
	m := &CoinTransaction{
		ID:            e.ID,
		ProfileID:     e.ProfileID,
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Kind:          string(e.Kind),
		Description:   e.Description,
		Multiplier:    e.Multiplier,
		BonusApplied:  e.BonusApplied,
	}
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.CreatedAt
	if e.Reference != nil {
		id := e.Reference.ID
		kind := e.Reference.Kind
		m.ReferenceID = &id
		m.ReferenceKind = &kind
	}
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		m.Metadata = raw
	}
	return m, nil
}

func entryToDomain(m *CoinTransaction) (*ledger.Entry, error) {
	e := &ledger.Entry{
		ID:            m.ID,
		ProfileID:     m.ProfileID,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Kind:          ledger.Kind(m.Kind),
		Description:   m.Description,
		Multiplier:    m.Multiplier,
		BonusApplied:  m.BonusApplied,
		CreatedAt:     m.CreatedAt,
	}
	if m.ReferenceID != nil && m.ReferenceKind != nil {
		e.Reference = &ledger.Reference{ID: *m.ReferenceID, Kind: *m.ReferenceKind}
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &e.Metadata); err != nil {
			return nil, err
		}
	}
	return e, nil
}
