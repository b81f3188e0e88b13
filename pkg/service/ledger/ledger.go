// Package ledger provides business logic for the coin economy: credits,
// debits, balance and history reads, daily summaries and the audit check
// that reconciles the denormalized balance against the transaction log.
//
// Every write resolves the external user id to a profile, serializes on a
// per-user lock and runs inside a unit of work so the ledger entry and the
// stats row move together or not at all.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/stats"
	"github.com/gamilit/progression/pkg/lock"
	"github.com/gamilit/progression/pkg/repository"
	"github.com/google/uuid"
)

// Service provides business logic for coin ledger operations.
type Service struct {
	uow    repository.UnitOfWork
	locks  *lock.Keyed
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies. The
// per-user lock set is shared across all mutating services via Deps so a
// credit cannot interleave with another service's stats write.
func NewService(deps config.Deps) *Service {
	locks := deps.Locks
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Service{
		uow:    deps.Uow,
		locks:  locks,
		logger: deps.Logger,
	}
}

// CreditOptions carries the optional attributes of a credit.
type CreditOptions struct {
	Description string
	Reference   *ledger.Reference
	Multiplier  float64
	Metadata    map[string]any
}

// DebitOptions carries the optional attributes of a debit.
type DebitOptions struct {
	Description string
	Reference   *ledger.Reference
	Metadata    map[string]any
}

// CoinStats is the per-user coin summary kept on the stats row.
type CoinStats struct {
	Balance     int64
	EarnedTotal int64
	SpentTotal  int64
	EarnedToday int64
}

// DailySummary aggregates ledger movement for one calendar day.
type DailySummary struct {
	Day     time.Time
	Earned  int64
	Spent   int64
	Net     int64
	Entries int64
}

// AuditReport compares the stats balance against the ledger fold.
type AuditReport struct {
	Balance    int64
	LedgerSum  int64
	Consistent bool
}

// Credit adds coins to a user's balance and appends a ledger entry. A zero
// Multiplier in opts means no scaling; a multiplier above 1 marks the entry
// as bonus-applied.
func (s *Service) Credit(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	kind ledger.Kind,
	opts CreditOptions,
) (entry *ledger.Entry, err error) {
	logger := s.logger.With("userID", userID, "amount", amount, "kind", kind)

	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}

	multiplier := opts.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	final, err := ledger.ApplyMultiplier(amount, multiplier)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(profileID.String())
	defer s.locks.Unlock(profileID.String())

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		statsRepo, err := uow.StatsRepository()
		if err != nil {
			return err
		}
		ledgerRepo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		st, err := statsRepo.GetByProfile(profileID)
		if err != nil {
			return err
		}
		now := time.Now()
		before, after, err := st.ApplyCredit(final, now)
		if err != nil {
			return err
		}

		entry = &ledger.Entry{
			ID:            uuid.New(),
			ProfileID:     profileID,
			Amount:        final,
			BalanceBefore: before,
			BalanceAfter:  after,
			Kind:          kind,
			Description:   opts.Description,
			Reference:     opts.Reference,
			Multiplier:    multiplier,
			BonusApplied:  multiplier > 1,
			Metadata:      opts.Metadata,
			CreatedAt:     now,
		}
		if err := ledgerRepo.Create(entry); err != nil {
			return err
		}
		return statsRepo.Update(st)
	})
	if err != nil {
		entry = nil
		logger.Error("Credit failed", "error", err)
		return
	}
	logger.Info("Credit successful", "balance", entry.BalanceAfter)
	return
}

// Debit removes coins from a user's balance and appends a ledger entry with
// a negative amount. Fails with ledger.ErrInsufficientFunds when the balance
// does not cover the amount.
func (s *Service) Debit(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	kind ledger.Kind,
	opts DebitOptions,
) (entry *ledger.Entry, err error) {
	logger := s.logger.With("userID", userID, "amount", amount, "kind", kind)

	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(profileID.String())
	defer s.locks.Unlock(profileID.String())

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		statsRepo, err := uow.StatsRepository()
		if err != nil {
			return err
		}
		ledgerRepo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		st, err := statsRepo.GetByProfile(profileID)
		if err != nil {
			return err
		}
		now := time.Now()
		before, after, err := st.ApplyDebit(amount, now)
		if err != nil {
			return err
		}

		entry = &ledger.Entry{
			ID:            uuid.New(),
			ProfileID:     profileID,
			Amount:        -amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			Kind:          kind,
			Description:   opts.Description,
			Reference:     opts.Reference,
			Multiplier:    1,
			Metadata:      opts.Metadata,
			CreatedAt:     now,
		}
		if err := ledgerRepo.Create(entry); err != nil {
			return err
		}
		return statsRepo.Update(st)
	})
	if err != nil {
		entry = nil
		logger.Error("Debit failed", "error", err)
		return
	}
	logger.Info("Debit successful", "balance", entry.BalanceAfter)
	return
}

// Balance returns the user's current coin balance.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	st, err := s.statsFor(userID)
	if err != nil {
		return 0, err
	}
	return st.CoinsBalance, nil
}

// Stats returns the user's coin summary.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*CoinStats, error) {
	st, err := s.statsFor(userID)
	if err != nil {
		return nil, err
	}
	return &CoinStats{
		Balance:     st.CoinsBalance,
		EarnedTotal: st.CoinsEarnedTotal,
		SpentTotal:  st.CoinsSpentTotal,
		EarnedToday: st.CoinsEarnedToday,
	}, nil
}

// History returns the user's ledger entries newest first, narrowed by the
// filter. Limit and offset page the underlying read before filtering when
// no filter is set, after it otherwise.
func (s *Service) History(
	ctx context.Context,
	userID uuid.UUID,
	f ledger.Filter,
	limit, offset int,
) ([]*ledger.Entry, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	ledgerRepo, err := s.uow.LedgerRepository()
	if err != nil {
		return nil, err
	}

	filtered := f != (ledger.Filter{})
	if !filtered {
		return ledgerRepo.ListByProfile(profileID, limit, offset)
	}

	all, err := ledgerRepo.ListByProfile(profileID, 0, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*ledger.Entry, 0, len(all))
	for _, e := range all {
		if f.Match(e) {
			out = append(out, e)
		}
	}
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

// Daily returns the earned, spent and net movement for the calendar day
// containing the given instant.
func (s *Service) Daily(ctx context.Context, userID uuid.UUID, day time.Time) (*DailySummary, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	ledgerRepo, err := s.uow.LedgerRepository()
	if err != nil {
		return nil, err
	}

	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())

	earned, err := ledgerRepo.SumByProfileSince(profileID, start, true)
	if err != nil {
		return nil, err
	}
	spent, err := ledgerRepo.SumByProfileSince(profileID, start, false)
	if err != nil {
		return nil, err
	}
	count, err := ledgerRepo.CountByProfileSince(profileID, start)
	if err != nil {
		return nil, err
	}
	return &DailySummary{
		Day:     start,
		Earned:  earned,
		Spent:   -spent,
		Net:     earned + spent,
		Entries: count,
	}, nil
}

// Audit folds the user's full ledger from zero and compares the sum to the
// denormalized balance.
func (s *Service) Audit(ctx context.Context, userID uuid.UUID) (*AuditReport, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	ledgerRepo, err := s.uow.LedgerRepository()
	if err != nil {
		return nil, err
	}
	statsRepo, err := s.uow.StatsRepository()
	if err != nil {
		return nil, err
	}

	sum, err := ledgerRepo.SumByProfile(profileID)
	if err != nil {
		return nil, err
	}
	st, err := statsRepo.GetByProfile(profileID)
	if err != nil {
		return nil, err
	}
	report := &AuditReport{
		Balance:    st.CoinsBalance,
		LedgerSum:  sum,
		Consistent: st.CoinsBalance == sum,
	}
	if !report.Consistent {
		s.logger.Warn("ledger audit mismatch",
			"userID", userID, "balance", report.Balance, "ledger_sum", report.LedgerSum)
	}
	return report, nil
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

func (s *Service) statsFor(userID uuid.UUID) (*stats.UserStats, error) {
	profileID, err := s.resolve(userID)
	if err != nil {
		return nil, err
	}
	statsRepo, err := s.uow.StatsRepository()
	if err != nil {
		return nil, err
	}
	return statsRepo.GetByProfile(profileID)
}
