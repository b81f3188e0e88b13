// Package memuow provides an in-memory UnitOfWork used by service tests.
// It honors the same contracts as the gorm-backed implementation: duplicate
// mission instances fail, not-found reads return domain errors and Do is a
// plain pass-through boundary.
package memuow

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/gamilit/progression/pkg/domain/profile"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/domain/stats"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
)

// UoW is an in-memory repository.UnitOfWork. Do runs the function against
// the same store without real transaction semantics; FailNextWrite lets
// tests simulate a persistence failure.
type UoW struct {
	mu sync.Mutex

	profiles    map[uuid.UUID]*profile.Profile
	statsRows   map[uuid.UUID]*stats.UserStats
	entries     []*ledger.Entry
	missions    map[uuid.UUID]*mission.Mission
	rankRecords map[uuid.UUID]*rank.Record

	// FailNextWrite makes the next repository write return this error.
	// SkipWrites lets that many writes succeed first, so a test can target
	// a later write such as a post-commit payout.
	FailNextWrite error
	SkipWrites    int
}

// New returns an empty in-memory unit of work.
func New() *UoW {
	return &UoW{
		profiles:    make(map[uuid.UUID]*profile.Profile),
		statsRows:   make(map[uuid.UUID]*stats.UserStats),
		missions:    make(map[uuid.UUID]*mission.Mission),
		rankRecords: make(map[uuid.UUID]*rank.Record),
	}
}

// Do implements repository.UnitOfWork.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(u)
}

// GetRepository implements repository.UnitOfWork.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	switch repoType {
	case reflect.TypeOf((*repository.ProfileRepository)(nil)).Elem():
		return &profileRepo{u}, nil
	case reflect.TypeOf((*repository.StatsRepository)(nil)).Elem():
		return &statsRepo{u}, nil
	case reflect.TypeOf((*repository.LedgerRepository)(nil)).Elem():
		return &ledgerRepo{u}, nil
	case reflect.TypeOf((*repository.MissionRepository)(nil)).Elem():
		return &missionRepo{u}, nil
	case reflect.TypeOf((*repository.RankRepository)(nil)).Elem():
		return &rankRepo{u}, nil
	}
	return nil, fmt.Errorf("unsupported repository type: %v", repoType)
}

// ProfileRepository implements repository.UnitOfWork.
func (u *UoW) ProfileRepository() (repository.ProfileRepository, error) {
	return &profileRepo{u}, nil
}

// StatsRepository implements repository.UnitOfWork.
func (u *UoW) StatsRepository() (repository.StatsRepository, error) {
	return &statsRepo{u}, nil
}

// LedgerRepository implements repository.UnitOfWork.
func (u *UoW) LedgerRepository() (repository.LedgerRepository, error) {
	return &ledgerRepo{u}, nil
}

// MissionRepository implements repository.UnitOfWork.
func (u *UoW) MissionRepository() (repository.MissionRepository, error) {
	return &missionRepo{u}, nil
}

// RankRepository implements repository.UnitOfWork.
func (u *UoW) RankRepository() (repository.RankRepository, error) {
	return &rankRepo{u}, nil
}

// Entries returns a copy of the ledger, oldest first.
func (u *UoW) Entries() []*ledger.Entry {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]*ledger.Entry, len(u.entries))
	copy(out, u.entries)
	return out
}

func (u *UoW) failWrite() error {
	if u.FailNextWrite == nil {
		return nil
	}
	if u.SkipWrites > 0 {
		u.SkipWrites--
		return nil
	}
	err := u.FailNextWrite
	u.FailNextWrite = nil
	return err
}

type profileRepo struct{ u *UoW }

func (r *profileRepo) Resolve(userID uuid.UUID) (*profile.Profile, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, p := range r.u.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, profile.ErrNotFound
}

func (r *profileRepo) Get(id uuid.UUID) (*profile.Profile, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	p, ok := r.u.profiles[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *profileRepo) Create(p *profile.Profile) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	cp := *p
	r.u.profiles[p.ID] = &cp
	return nil
}

type statsRepo struct{ u *UoW }

func (r *statsRepo) GetByProfile(profileID uuid.UUID) (*stats.UserStats, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, s := range r.u.statsRows {
		if s.ProfileID == profileID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, stats.ErrNotFound
}

func (r *statsRepo) Create(s *stats.UserStats) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	cp := *s
	r.u.statsRows[s.ID] = &cp
	return nil
}

func (r *statsRepo) Update(s *stats.UserStats) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	if _, ok := r.u.statsRows[s.ID]; !ok {
		return stats.ErrNotFound
	}
	cp := *s
	r.u.statsRows[s.ID] = &cp
	return nil
}

type ledgerRepo struct{ u *UoW }

func (r *ledgerRepo) Create(e *ledger.Entry) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	cp := *e
	r.u.entries = append(r.u.entries, &cp)
	return nil
}

func (r *ledgerRepo) Get(id uuid.UUID) (*ledger.Entry, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, e := range r.u.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("entry not found: %s", id)
}

func (r *ledgerRepo) ListByProfile(profileID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	out := make([]*ledger.Entry, 0)
	for _, e := range r.u.entries {
		if e.ProfileID == profileID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset > 0 {
		if offset >= len(out) {
			return []*ledger.Entry{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *ledgerRepo) SumByProfile(profileID uuid.UUID) (int64, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var sum int64
	for _, e := range r.u.entries {
		if e.ProfileID == profileID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (r *ledgerRepo) SumByProfileSince(profileID uuid.UUID, from time.Time, earned bool) (int64, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var sum int64
	for _, e := range r.u.entries {
		if e.ProfileID != profileID || e.CreatedAt.Before(from) {
			continue
		}
		if earned && e.Amount > 0 {
			sum += e.Amount
		}
		if !earned && e.Amount < 0 {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (r *ledgerRepo) CountByProfileSince(profileID uuid.UUID, from time.Time) (int64, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var count int64
	for _, e := range r.u.entries {
		if e.ProfileID == profileID && !e.CreatedAt.Before(from) {
			count++
		}
	}
	return count, nil
}

type missionRepo struct{ u *UoW }

func (r *missionRepo) Get(id uuid.UUID) (*mission.Mission, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	m, ok := r.u.missions[id]
	if !ok {
		return nil, mission.ErrNotFound
	}
	cp := cloneMission(m)
	return cp, nil
}

func (r *missionRepo) Create(m *mission.Mission) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	for _, existing := range r.u.missions {
		if existing.ProfileID == m.ProfileID &&
			existing.TemplateID == m.TemplateID &&
			existing.PeriodKey == m.PeriodKey {
			return mission.ErrDuplicateInstance
		}
	}
	r.u.missions[m.ID] = cloneMission(m)
	return nil
}

func (r *missionRepo) Update(m *mission.Mission) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	if _, ok := r.u.missions[m.ID]; !ok {
		return mission.ErrNotFound
	}
	r.u.missions[m.ID] = cloneMission(m)
	return nil
}

func (r *missionRepo) ListByProfileAndType(profileID uuid.UUID, t mission.Type, periodKey string) ([]*mission.Mission, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	out := make([]*mission.Mission, 0)
	for _, m := range r.u.missions {
		if m.ProfileID == profileID && m.Type == t && m.PeriodKey == periodKey {
			out = append(out, cloneMission(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *missionRepo) ListByProfile(profileID uuid.UUID) ([]*mission.Mission, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	out := make([]*mission.Mission, 0)
	for _, m := range r.u.missions {
		if m.ProfileID == profileID {
			out = append(out, cloneMission(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *missionRepo) ListExpiring(now time.Time, limit int) ([]*mission.Mission, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	out := make([]*mission.Mission, 0)
	for _, m := range r.u.missions {
		if (m.Status == mission.StatusActive || m.Status == mission.StatusInProgress) &&
			m.EndDate.Before(now) {
			out = append(out, cloneMission(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type rankRepo struct{ u *UoW }

func (r *rankRepo) GetCurrent(profileID uuid.UUID) (*rank.Record, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, rec := range r.u.rankRecords {
		if rec.ProfileID == profileID && rec.IsCurrent {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, rank.ErrNoCurrentRank
}

func (r *rankRepo) ListByProfile(profileID uuid.UUID) ([]*rank.Record, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	out := make([]*rank.Record, 0)
	for _, rec := range r.u.rankRecords {
		if rec.ProfileID == profileID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievedAt.After(out[j].AchievedAt) })
	return out, nil
}

func (r *rankRepo) Create(rec *rank.Record) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	cp := *rec
	r.u.rankRecords[rec.ID] = &cp
	return nil
}

func (r *rankRepo) Update(rec *rank.Record) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.failWrite(); err != nil {
		return err
	}
	if _, ok := r.u.rankRecords[rec.ID]; !ok {
		return rank.ErrRecordNotFound
	}
	cp := *rec
	r.u.rankRecords[rec.ID] = &cp
	return nil
}

func cloneMission(m *mission.Mission) *mission.Mission {
	cp := *m
	cp.Objectives = make([]mission.Objective, len(m.Objectives))
	copy(cp.Objectives, m.Objectives)
	return &cp
}
