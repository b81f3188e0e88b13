// Package rank provides business logic for the promotion ladder: progress
// reads, eligibility checks and the promotion itself.
//
// A promotion flips the old current record and inserts the new one in a
// single transaction. The coin bonus is paid through the ledger after the
// commit; a payout failure is logged, never rolled back, and stays visible
// through the rank history.
package rank

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/domain/events"
	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/eventbus"
	"github.com/gamilit/progression/pkg/lock"
	"github.com/gamilit/progression/pkg/repository"
	ledgersvc "github.com/gamilit/progression/pkg/service/ledger"
	"github.com/google/uuid"
)

// Service provides business logic for rank operations.
type Service struct {
	uow    repository.UnitOfWork
	coins  *ledgersvc.Service
	locks  *lock.Keyed
	logger *slog.Logger
	bus    eventbus.EventBus
}

// NewService creates a new Service with the provided dependencies. The
// per-user lock set is shared with the ledger and stats services via Deps.
func NewService(deps config.Deps, coins *ledgersvc.Service) *Service {
	locks := deps.Locks
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Service{
		uow:    deps.Uow,
		coins:  coins,
		locks:  locks,
		logger: deps.Logger,
		bus:    deps.EventBus,
	}
}

// Ladder returns the full rank configuration in ordinal order.
func (s *Service) Ladder() []rank.Config {
	return rank.All()
}

// Current returns the user's current rank record.
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (*rank.Record, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	rankRepo, err := s.uow.RankRepository()
	if err != nil {
		return nil, err
	}
	return rankRepo.GetCurrent(profileID)
}

// History returns the user's rank records newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]*rank.Record, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	rankRepo, err := s.uow.RankRepository()
	if err != nil {
		return nil, err
	}
	return rankRepo.ListByProfile(profileID)
}

// Progress returns how far the user has advanced toward the next rank.
func (s *Service) Progress(ctx context.Context, userID uuid.UUID) (*rank.Progress, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	statsRepo, err := s.uow.StatsRepository()
	if err != nil {
		return nil, err
	}
	st, err := statsRepo.GetByProfile(profileID)
	if err != nil {
		return nil, err
	}
	p, err := rank.ProgressToward(st.CurrentRank, st.TotalXP)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Eligible reports whether the user can be promoted right now. Lookup
// failures read as not eligible.
func (s *Service) Eligible(ctx context.Context, userID uuid.UUID) bool {
	p, err := s.Progress(ctx, userID)
	if err != nil {
		return false
	}
	return !p.IsMaxRank && p.XPRemaining == 0
}

// Promote advances the user one rank. The old current record is flipped and
// the new record inserted in one transaction; the coin bonus is credited
// after the commit.
func (s *Service) Promote(ctx context.Context, userID uuid.UUID) (rec *rank.Record, err error) {
	logger := s.logger.With("userID", userID)

	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}

	rec, prev, err := s.promote(ctx, profileID)
	if err != nil {
		logger.Error("Promote failed", "error", err)
		return nil, err
	}
	logger.Info("Promote successful", "rank", rec.CurrentRank, "bonus", rec.CoinsBonus)

	if rec.CoinsBonus > 0 {
		_, cerr := s.coins.Credit(ctx, userID, rec.CoinsBonus, ledger.KindEarnedRank, ledgersvc.CreditOptions{
			Description: "Rank promotion bonus: " + string(rec.CurrentRank),
			Reference:   &ledger.Reference{ID: rec.ID, Kind: "rank_record"},
		})
		if cerr != nil {
			logger.Error("Promotion bonus payout failed", "error", cerr, "recordID", rec.ID)
		}
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.RankPromotedEvent{
			ProfileID:    profileID,
			PreviousRank: prev,
			NewRank:      rec.CurrentRank,
			CoinsBonus:   rec.CoinsBonus,
			XPEarned:     rec.XPEarned,
			Timestamp:    rec.AchievedAt,
		})
	}
	return rec, nil
}

// promote runs the transactional rank flip under the per-user lock. The lock
// is released before returning so the bonus payout can take it through the
// ledger service.
func (s *Service) promote(ctx context.Context, profileID uuid.UUID) (rec *rank.Record, prev rank.Rank, err error) {
	s.locks.Lock(profileID.String())
	defer s.locks.Unlock(profileID.String())

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		statsRepo, err := uow.StatsRepository()
		if err != nil {
			return err
		}
		rankRepo, err := uow.RankRepository()
		if err != nil {
			return err
		}

		st, err := statsRepo.GetByProfile(profileID)
		if err != nil {
			return err
		}
		current, err := rankRepo.GetCurrent(profileID)
		if err != nil {
			return err
		}

		next, ok := rank.Next(current.CurrentRank)
		if !ok {
			return rank.ErrAlreadyMaxRank
		}
		nextCfg, err := rank.ConfigFor(next)
		if err != nil {
			return err
		}
		if st.TotalXP < nextCfg.XPMin {
			return rank.ErrNotEligible
		}

		now := time.Now()
		prev = current.CurrentRank
		current.IsCurrent = false
		if err := rankRepo.Update(current); err != nil {
			return err
		}

		progress, err := rank.ProgressToward(next, st.TotalXP)
		if err != nil {
			return err
		}
		rec = &rank.Record{
			ID:           uuid.New(),
			ProfileID:    profileID,
			CurrentRank:  next,
			PreviousRank: &prev,
			ProgressPct:  float64(progress.Percentage),
			XPEarned:     st.TotalXP,
			CoinsBonus:   nextCfg.CoinsBonus,
			IsCurrent:    true,
			AchievedAt:   now,
			CreatedAt:    now,
		}
		if err := rankRepo.Create(rec); err != nil {
			return err
		}

		st.SetCurrentRank(next, now)
		return statsRepo.Update(st)
	})
	if err != nil {
		return nil, "", err
	}
	return rec, prev, nil
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
