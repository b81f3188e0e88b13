package rank_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/gamilit/progression/internal/fixtures/memuow"
	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/domain/events"
	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/eventbus"
	"github.com/gamilit/progression/pkg/lock"
	ledgersvc "github.com/gamilit/progression/pkg/service/ledger"
	ranksvc "github.com/gamilit/progression/pkg/service/rank"
	"github.com/gamilit/progression/pkg/service/userstats"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	uow   *memuow.UoW
	bus   *eventbus.SimpleEventBus
	coins *ledgersvc.Service
	stats *userstats.Service
	ranks *ranksvc.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	uow := memuow.New()
	bus := eventbus.NewSimpleEventBus()
	deps := config.Deps{
		Uow:      uow,
		EventBus: bus,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Locks:    lock.NewKeyed(),
		Config:   &config.App{Gamification: &config.Gamification{WelcomeBonus: 100}},
	}
	coins := ledgersvc.NewService(deps)
	stats := userstats.NewService(deps)
	return &harness{
		uow:   uow,
		bus:   bus,
		coins: coins,
		stats: stats,
		ranks: ranksvc.NewService(deps, coins),
	}
}

func (h *harness) newUser(t *testing.T, xp int64) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	_, err := h.stats.Initialize(context.Background(), userID)
	require.NoError(t, err)
	if xp > 0 {
		_, err = h.stats.AddXP(context.Background(), userID, xp)
		require.NoError(t, err)
	}
	return userID
}

func TestLadder(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ladder := h.ranks.Ladder()
	require.Len(t, ladder, 5)
	assert.Equal(t, rank.Ajaw, ladder[0].Rank)
}

func TestProgressAndEligible(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	t.Run("fresh user is not eligible", func(t *testing.T) {
		userID := h.newUser(t, 0)
		p, err := h.ranks.Progress(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 0, p.Percentage)
		assert.Equal(t, int64(500), p.XPRemaining)
		assert.False(t, h.ranks.Eligible(ctx, userID))
	})

	t.Run("eligible exactly at the threshold", func(t *testing.T) {
		userID := h.newUser(t, 500)
		assert.True(t, h.ranks.Eligible(ctx, userID))
	})

	t.Run("unknown user reads as not eligible", func(t *testing.T) {
		assert.False(t, h.ranks.Eligible(ctx, uuid.New()))
	})
}

func TestPromote(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	userID := h.newUser(t, 500)

	var published []events.RankPromotedEvent
	h.bus.Subscribe(events.RankPromotedEvent{}.Type(), func(_ context.Context, e eventbus.Event) {
		published = append(published, e.(events.RankPromotedEvent))
	})

	rec, err := h.ranks.Promote(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, rank.Nacom, rec.CurrentRank)
	require.NotNil(t, rec.PreviousRank)
	assert.Equal(t, rank.Ajaw, *rec.PreviousRank)
	assert.Equal(t, int64(100), rec.CoinsBonus)
	assert.True(t, rec.IsCurrent)

	t.Run("exactly one current record", func(t *testing.T) {
		history, err := h.ranks.History(ctx, userID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		current := 0
		for _, r := range history {
			if r.IsCurrent {
				current++
			}
		}
		assert.Equal(t, 1, current)

		cur, err := h.ranks.Current(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, cur.ID)
	})

	t.Run("bonus paid through the ledger", func(t *testing.T) {
		balance, err := h.coins.Balance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(200), balance, "welcome bonus plus promotion bonus")

		var bonus *ledger.Entry
		for _, e := range h.uow.Entries() {
			if e.Kind == ledger.KindEarnedRank {
				bonus = e
			}
		}
		require.NotNil(t, bonus)
		require.NotNil(t, bonus.Reference)
		assert.Equal(t, rec.ID, bonus.Reference.ID)
		assert.Equal(t, "rank_record", bonus.Reference.Kind)
	})

	t.Run("stats snapshot follows", func(t *testing.T) {
		st, err := h.stats.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, rank.Nacom, st.CurrentRank)
	})

	t.Run("event published", func(t *testing.T) {
		require.Len(t, published, 1)
		assert.Equal(t, rank.Ajaw, published[0].PreviousRank)
		assert.Equal(t, rank.Nacom, published[0].NewRank)
		assert.Equal(t, int64(100), published[0].CoinsBonus)
	})
}

func TestPromoteNotEligible(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	userID := h.newUser(t, 499)

	_, err := h.ranks.Promote(ctx, userID)
	assert.ErrorIs(t, err, rank.ErrNotEligible)

	history, err := h.ranks.History(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPromoteMaxRank(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	userID := h.newUser(t, 2250)

	for i := 0; i < 4; i++ {
		_, err := h.ranks.Promote(ctx, userID)
		require.NoError(t, err)
	}
	cur, err := h.ranks.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, rank.Kukulkan, cur.CurrentRank)

	_, err = h.ranks.Promote(ctx, userID)
	assert.ErrorIs(t, err, rank.ErrAlreadyMaxRank)
}

func TestPromoteBonusPayoutFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	userID := h.newUser(t, 500)

	// Let the promotion writes through and fail the ledger write of the
	// post-commit bonus payout.
	h.uow.FailNextWrite = errors.New("ledger write failed")
	h.uow.SkipWrites = 3

	rec, err := h.ranks.Promote(ctx, userID)
	require.NoError(t, err, "a payout failure does not fail the promotion")
	assert.Equal(t, rank.Nacom, rec.CurrentRank)

	cur, err := h.ranks.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, rank.Nacom, cur.CurrentRank)

	balance, err := h.coins.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance, "bonus never landed")
	for _, e := range h.uow.Entries() {
		assert.NotEqual(t, ledger.KindEarnedRank, e.Kind)
	}
}

func TestPromoteConcurrentWithCredits(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	userID := h.newUser(t, 500)

	const credits = 50

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := h.ranks.Promote(ctx, userID)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < credits; i++ {
			_, err := h.coins.Credit(ctx, userID, 1, ledger.KindEarnedExercise, ledgersvc.CreditOptions{})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	// Welcome bonus, promotion bonus and every concurrent credit must all
	// survive on the stats row; a lost update would break the audit.
	balance, err := h.coins.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100+100+credits), balance)

	report, err := h.coins.Audit(ctx, userID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, balance, report.LedgerSum)
}
