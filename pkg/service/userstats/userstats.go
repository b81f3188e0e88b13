// Package userstats provides business logic for account initialization and
// the per-user stats aggregate: levels, experience and the denormalized coin
// counters.
package userstats

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/profile"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/domain/stats"
	"github.com/gamilit/progression/pkg/lock"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
)

// Service provides business logic for user stats operations.
type Service struct {
	uow          repository.UnitOfWork
	locks        *lock.Keyed
	logger       *slog.Logger
	welcomeBonus int64
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	var welcome int64 = 100
	if deps.Config != nil && deps.Config.Gamification != nil {
		welcome = deps.Config.Gamification.WelcomeBonus
	}
	locks := deps.Locks
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Service{
		uow:          deps.Uow,
		locks:        locks,
		logger:       deps.Logger,
		welcomeBonus: welcome,
	}
}

// Get returns the stats row for a user.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*stats.UserStats, error) {
	profileRepo, err := s.uow.ProfileRepository()
	if err != nil {
		return nil, err
	}
	p, err := profileRepo.Resolve(userID)
	if err != nil {
		return nil, err
	}
	statsRepo, err := s.uow.StatsRepository()
	if err != nil {
		return nil, err
	}
	return statsRepo.GetByProfile(p.ID)
}

// Initialize provisions a profile, its stats row, the first rank record and
// the welcome bonus in one transaction. Calling it again for the same user
// returns the existing stats row unchanged.
func (s *Service) Initialize(ctx context.Context, userID uuid.UUID) (st *stats.UserStats, err error) {
	logger := s.logger.With("userID", userID)

	s.locks.Lock(userID.String())
	defer s.locks.Unlock(userID.String())

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		profileRepo, err := uow.ProfileRepository()
		if err != nil {
			return err
		}
		statsRepo, err := uow.StatsRepository()
		if err != nil {
			return err
		}
		rankRepo, err := uow.RankRepository()
		if err != nil {
			return err
		}
		ledgerRepo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		p, err := profileRepo.Resolve(userID)
		if err == nil {
			st, err = statsRepo.GetByProfile(p.ID)
			return err
		}
		if !errors.Is(err, profile.ErrNotFound) {
			return err
		}

		now := time.Now()
		p = profile.New(userID, now)
		if err := profileRepo.Create(p); err != nil {
			return err
		}

		st = stats.New(p.ID, now)
		if s.welcomeBonus > 0 {
			before, after, err := st.ApplyCredit(s.welcomeBonus, now)
			if err != nil {
				return err
			}
			entry := &ledger.Entry{
				ID:            uuid.New(),
				ProfileID:     p.ID,
				Amount:        s.welcomeBonus,
				BalanceBefore: before,
				BalanceAfter:  after,
				Kind:          ledger.KindWelcomeBonus,
				Description:   "Welcome bonus",
				Multiplier:    1,
				CreatedAt:     now,
			}
			if err := ledgerRepo.Create(entry); err != nil {
				return err
			}
		}
		if err := statsRepo.Create(st); err != nil {
			return err
		}
		return rankRepo.Create(rank.NewInitialRecord(p.ID, now))
	})
	if err != nil {
		st = nil
		logger.Error("Initialize failed", "error", err)
		return
	}
	logger.Info("Initialize successful", "profileID", st.ProfileID)
	return
}

// AddXP grants experience to a user and rederives level and rank progress.
func (s *Service) AddXP(ctx context.Context, userID uuid.UUID, amount int64) (st *stats.UserStats, err error) {
	logger := s.logger.With("userID", userID, "xp", amount)

	profileRepo, err := s.uow.ProfileRepository()
	if err != nil {
		return nil, err
	}
	p, err := profileRepo.Resolve(userID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(p.ID.String())
	defer s.locks.Unlock(p.ID.String())

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		statsRepo, err := uow.StatsRepository()
		if err != nil {
			return err
		}
		st, err = statsRepo.GetByProfile(p.ID)
		if err != nil {
			return err
		}
		if err := st.AddXP(amount, time.Now()); err != nil {
			return err
		}
		return statsRepo.Update(st)
	})
	if err != nil {
		st = nil
		logger.Error("AddXP failed", "error", err)
		return
	}
	logger.Info("AddXP successful", "total_xp", st.TotalXP, "level", st.Level)
	return
}
