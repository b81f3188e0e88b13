// Package mission provides business logic for the mission lifecycle:
// lazy per-period generation, progress updates, claims and the expiry sweep.
//
// Claim persists the state transition first; the coin and XP payouts run
// after the commit as best-effort operations. A payout failure is logged and
// surfaced through the ledger audit, never by rolling back the claim.
package mission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/domain/events"
	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/gamilit/progression/pkg/eventbus"
	"github.com/gamilit/progression/pkg/lock"
	"github.com/gamilit/progression/pkg/repository"
	ledgersvc "github.com/gamilit/progression/pkg/service/ledger"
	statssvc "github.com/gamilit/progression/pkg/service/userstats"
	"github.com/google/uuid"
)

// Service provides business logic for mission operations.
type Service struct {
	uow    repository.UnitOfWork
	coins  *ledgersvc.Service
	stats  *statssvc.Service
	locks  *lock.Keyed
	logger *slog.Logger
	bus    eventbus.EventBus
}

// NewService creates a new Service with the provided dependencies. The
// per-user lock set is shared with the ledger and stats services via Deps.
func NewService(deps config.Deps, coins *ledgersvc.Service, stats *statssvc.Service) *Service {
	locks := deps.Locks
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Service{
		uow:    deps.Uow,
		coins:  coins,
		stats:  stats,
		locks:  locks,
		logger: deps.Logger,
		bus:    deps.EventBus,
	}
}

// Stats summarizes a user's missions: the current day and ISO week plus
// lifetime totals. A mission counts as completed once it reaches completed
// or claimed.
type Stats struct {
	TodayCompleted int
	TodayTotal     int
	WeekCompleted  int
	WeekTotal      int
	TotalCompleted int
	CoinsEarned    int64
	XPEarned       int64
	CurrentStreak  int
	LongestStreak  int
}

// ListByType returns the user's missions of the given recurring type for the
// current period, generating any catalog instances that do not exist yet.
// Generation is idempotent: a concurrent generator losing the unique-index
// race re-reads the winner's rows.
func (s *Service) ListByType(ctx context.Context, userID uuid.UUID, t mission.Type) ([]*mission.Mission, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}

	missionRepo, err := s.uow.MissionRepository()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if t == mission.TypeSpecial {
		all, err := missionRepo.ListByProfile(profileID)
		if err != nil {
			return nil, err
		}
		out := make([]*mission.Mission, 0)
		for _, m := range all {
			if m.Type == mission.TypeSpecial {
				out = append(out, m)
			}
		}
		return out, nil
	}

	periodKey := mission.PeriodKeyFor(t, now)
	existing, err := missionRepo.ListByProfileAndType(profileID, t, periodKey)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m.TemplateID] = true
	}

	generated := false
	for _, tpl := range mission.TemplatesFor(t) {
		if have[tpl.ID] {
			continue
		}
		inst := mission.Instantiate(tpl, profileID, now)
		err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo, err := uow.MissionRepository()
			if err != nil {
				return err
			}
			return repo.Create(inst)
		})
		if err != nil && !errors.Is(err, mission.ErrDuplicateInstance) {
			return nil, err
		}
		generated = true
	}

	if !generated {
		return existing, nil
	}
	return missionRepo.ListByProfileAndType(profileID, t, periodKey)
}

// ListAll returns every mission the user has, newest first.
func (s *Service) ListAll(ctx context.Context, userID uuid.UUID) ([]*mission.Mission, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	missionRepo, err := s.uow.MissionRepository()
	if err != nil {
		return nil, err
	}
	return missionRepo.ListByProfile(profileID)
}

// Get returns one mission, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, missionID uuid.UUID) (*mission.Mission, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	missionRepo, err := s.uow.MissionRepository()
	if err != nil {
		return nil, err
	}
	m, err := missionRepo.Get(missionID)
	if err != nil {
		return nil, err
	}
	if m.ProfileID != profileID {
		return nil, mission.ErrNotOwner
	}
	return m, nil
}

// Start moves an untouched mission to in_progress.
func (s *Service) Start(ctx context.Context, userID, missionID uuid.UUID) (*mission.Mission, error) {
	return s.mutate(ctx, userID, missionID, func(m *mission.Mission, profileID uuid.UUID, now time.Time) error {
		return m.Start(profileID, now)
	})
}

// UpdateProgress increments one objective of a mission. Completion is
// detected here and announced on the bus after the commit.
func (s *Service) UpdateProgress(
	ctx context.Context,
	userID, missionID uuid.UUID,
	objType mission.ObjectiveType,
	increment int64,
) (*mission.Mission, error) {
	wasCompleted := false
	m, err := s.mutate(ctx, userID, missionID, func(m *mission.Mission, profileID uuid.UUID, now time.Time) error {
		wasCompleted = m.Status == mission.StatusCompleted
		return m.ApplyProgress(profileID, objType, increment, now)
	})
	if err != nil {
		return nil, err
	}

	if !wasCompleted && m.Status == mission.StatusCompleted && s.bus != nil {
		_ = s.bus.Publish(ctx, events.MissionCompletedEvent{
			MissionID:  m.ID,
			ProfileID:  m.ProfileID,
			TemplateID: m.TemplateID,
			Rewards:    m.Rewards,
			Timestamp:  time.Now(),
		})
	}
	return m, nil
}

// Claim marks a completed mission claimed, then pays out its rewards.
func (s *Service) Claim(ctx context.Context, userID, missionID uuid.UUID) (*mission.Mission, error) {
	logger := s.logger.With("userID", userID, "missionID", missionID)

	m, err := s.mutate(ctx, userID, missionID, func(m *mission.Mission, profileID uuid.UUID, now time.Time) error {
		return m.Claim(profileID, now)
	})
	if err != nil {
		return nil, err
	}

	if m.Rewards.Coins > 0 {
		_, cerr := s.coins.Credit(ctx, userID, m.Rewards.Coins, ledger.KindEarnedMission, ledgersvc.CreditOptions{
			Description: "Mission reward: " + m.Title,
			Reference:   &ledger.Reference{ID: m.ID, Kind: "mission"},
		})
		if cerr != nil {
			logger.Error("Claim coin payout failed", "error", cerr, "coins", m.Rewards.Coins)
		}
	}
	if m.Rewards.XP > 0 {
		if _, xerr := s.stats.AddXP(ctx, userID, m.Rewards.XP); xerr != nil {
			logger.Error("Claim XP payout failed", "error", xerr, "xp", m.Rewards.XP)
		}
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.RewardsClaimedEvent{
			MissionID:  m.ID,
			ProfileID:  m.ProfileID,
			TemplateID: m.TemplateID,
			Coins:      m.Rewards.Coins,
			XP:         m.Rewards.XP,
			Timestamp:  time.Now(),
		})
	}
	logger.Info("Claim successful", "coins", m.Rewards.Coins, "xp", m.Rewards.XP)
	return m, nil
}

// Summary folds the user's full mission list into aggregate counters.
// Streak fields stay zero: computing them needs a completion-date history
// that is not tracked yet.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	all, err := s.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dayKey := mission.DailyPeriodKey(now)
	weekKey := mission.WeeklyPeriodKey(now)

	out := &Stats{}
	for _, m := range all {
		done := m.Status == mission.StatusCompleted || m.Status == mission.StatusClaimed
		if m.Type == mission.TypeDaily && m.PeriodKey == dayKey {
			out.TodayTotal++
			if done {
				out.TodayCompleted++
			}
		}
		if mission.WeeklyPeriodKey(m.StartDate) == weekKey {
			out.WeekTotal++
			if done {
				out.WeekCompleted++
			}
		}
		if done {
			out.TotalCompleted++
			out.CoinsEarned += m.Rewards.Coins
			out.XPEarned += m.Rewards.XP
		}
	}
	return out, nil
}

// ExpireSweep transitions every mission past its end date to expired and
// returns how many rows changed. Safe to run concurrently and repeatedly.
func (s *Service) ExpireSweep(ctx context.Context, now time.Time, batchSize int) (int, error) {
	missionRepo, err := s.uow.MissionRepository()
	if err != nil {
		return 0, err
	}
	due, err := missionRepo.ListExpiring(now, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, m := range due {
		m := m
		err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo, err := uow.MissionRepository()
			if err != nil {
				return err
			}
			fresh, err := repo.Get(m.ID)
			if err != nil {
				return err
			}
			if !fresh.Expire(now) {
				return nil
			}
			if err := repo.Update(fresh); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			s.logger.Error("ExpireSweep failed for mission", "missionID", m.ID, "error", err)
		}
	}
	if expired > 0 {
		s.logger.Info("ExpireSweep finished", "expired", expired, "scanned", len(due))
	}
	return expired, nil
}

// mutate loads a mission under the per-user lock, applies fn and persists
// the result in one transaction.
func (s *Service) mutate(
	ctx context.Context,
	userID, missionID uuid.UUID,
	fn func(m *mission.Mission, profileID uuid.UUID, now time.Time) error,
) (out *mission.Mission, err error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(profileID.String())
	defer s.locks.Unlock(profileID.String())

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.MissionRepository()
		if err != nil {
			return err
		}
		m, err := repo.Get(missionID)
		if err != nil {
			return err
		}
		if err := fn(m, profileID, time.Now()); err != nil {
			return err
		}
		if err := repo.Update(m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		out = nil
		return
	}
	return
}

func (s *Service) resolve(userID uuid.UUID) (uuid.UUID, error) {
	profileRepo, err := s.uow.ProfileRepository()
	if err != nil {
		return uuid.Nil, err
	}
	p, err := profileRepo.Resolve(userID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}
