package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gamilit/progression/internal/fixtures/memuow"
	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/profile"
	"github.com/gamilit/progression/pkg/domain/stats"
	ledgersvc "github.com/gamilit/progression/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*ledgersvc.Service, *memuow.UoW, uuid.UUID) {
	t.Helper()
	uow := memuow.New()
	svc := ledgersvc.NewService(config.Deps{
		Uow:    uow,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	userID := uuid.New()
	now := time.Now()
	p := profile.New(userID, now)
	profileRepo, err := uow.ProfileRepository()
	require.NoError(t, err)
	require.NoError(t, profileRepo.Create(p))
	statsRepo, err := uow.StatsRepository()
	require.NoError(t, err)
	require.NoError(t, statsRepo.Create(stats.New(p.ID, now)))
	return svc, uow, userID
}

func TestCredit(t *testing.T) {
	t.Parallel()
	svc, uow, userID := newService(t)
	ctx := context.Background()

	entry, err := svc.Credit(ctx, userID, 50, ledger.KindEarnedExercise, ledgersvc.CreditOptions{
		Description: "Completed exercise",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), entry.Amount)
	assert.Equal(t, int64(0), entry.BalanceBefore)
	assert.Equal(t, int64(50), entry.BalanceAfter)
	assert.Equal(t, float64(1), entry.Multiplier)
	assert.False(t, entry.BonusApplied)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
	require.Len(t, uow.Entries(), 1)

	t.Run("multiplier floors and flags bonus", func(t *testing.T) {
		entry, err := svc.Credit(ctx, userID, 10, ledger.KindEarnedStreak, ledgersvc.CreditOptions{
			Multiplier: 1.55,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(15), entry.Amount)
		assert.True(t, entry.BonusApplied)
		assert.Equal(t, int64(65), entry.BalanceAfter)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Credit(ctx, uuid.New(), 50, ledger.KindEarnedExercise, ledgersvc.CreditOptions{})
		assert.ErrorIs(t, err, profile.ErrNotFound)
	})

	t.Run("rejects negative multiplier", func(t *testing.T) {
		_, err := svc.Credit(ctx, userID, 10, ledger.KindEarnedExercise, ledgersvc.CreditOptions{
			Multiplier: -1,
		})
		assert.ErrorIs(t, err, ledger.ErrInvalidMultiplier)
	})
}

func TestDebit(t *testing.T) {
	t.Parallel()
	svc, uow, userID := newService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, userID, 100, ledger.KindEarnedExercise, ledgersvc.CreditOptions{})
	require.NoError(t, err)

	entry, err := svc.Debit(ctx, userID, 30, ledger.KindSpentHint, ledgersvc.DebitOptions{
		Description: "Hint purchase",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-30), entry.Amount, "debits are stored negative")
	assert.Equal(t, int64(100), entry.BalanceBefore)
	assert.Equal(t, int64(70), entry.BalanceAfter)

	t.Run("insufficient funds writes nothing", func(t *testing.T) {
		written := len(uow.Entries())
		_, err := svc.Debit(ctx, userID, 1000, ledger.KindSpentPowerup, ledgersvc.DebitOptions{})
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		assert.Len(t, uow.Entries(), written)

		balance, err := svc.Balance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(70), balance)
	})
}

func TestStats(t *testing.T) {
	t.Parallel()
	svc, _, userID := newService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, userID, 100, ledger.KindEarnedExercise, ledgersvc.CreditOptions{})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, userID, 40, ledger.KindSpentHint, ledgersvc.DebitOptions{})
	require.NoError(t, err)

	cs, err := svc.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), cs.Balance)
	assert.Equal(t, int64(100), cs.EarnedTotal)
	assert.Equal(t, int64(40), cs.SpentTotal)
	assert.Equal(t, int64(100), cs.EarnedToday)
}

func TestHistory(t *testing.T) {
	t.Parallel()
	svc, _, userID := newService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, userID, 10, ledger.KindEarnedExercise, ledgersvc.CreditOptions{})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, userID, 20, ledger.KindEarnedStreak, ledgersvc.CreditOptions{})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, userID, 5, ledger.KindSpentHint, ledgersvc.DebitOptions{})
	require.NoError(t, err)

	t.Run("unfiltered", func(t *testing.T) {
		entries, err := svc.History(ctx, userID, ledger.Filter{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("by kind", func(t *testing.T) {
		kind := ledger.KindEarnedStreak
		entries, err := svc.History(ctx, userID, ledger.Filter{Kind: &kind}, 0, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(20), entries[0].Amount)
	})

	t.Run("paged", func(t *testing.T) {
		entries, err := svc.History(ctx, userID, ledger.Filter{}, 2, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		entries, err = svc.History(ctx, userID, ledger.Filter{}, 0, 5)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestDaily(t *testing.T) {
	t.Parallel()
	svc, _, userID := newService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, userID, 100, ledger.KindEarnedExercise, ledgersvc.CreditOptions{})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, userID, 30, ledger.KindSpentHint, ledgersvc.DebitOptions{})
	require.NoError(t, err)

	summary, err := svc.Daily(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(100), summary.Earned)
	assert.Equal(t, int64(30), summary.Spent, "spent is reported positive")
	assert.Equal(t, int64(70), summary.Net)
	assert.Equal(t, int64(2), summary.Entries)
}

func TestAudit(t *testing.T) {
	t.Parallel()
	svc, uow, userID := newService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, userID, 100, ledger.KindEarnedExercise, ledgersvc.CreditOptions{})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, userID, 25, ledger.KindSpentHint, ledgersvc.DebitOptions{})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, userID, 7, ledger.KindEarnedStreak, ledgersvc.CreditOptions{})
	require.NoError(t, err)

	report, err := svc.Audit(ctx, userID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(82), report.Balance)
	assert.Equal(t, report.Balance, report.LedgerSum)

	// Folding the raw entries from zero reproduces the balance too.
	var fold int64
	for _, e := range uow.Entries() {
		fold += e.Amount
	}
	assert.Equal(t, report.Balance, fold)
}
