package rank_test

import (
	"testing"
	"time"

	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
}

func TestLadder(t *testing.T) {
	t.Parallel()
	ladder := rank.All()
	require.Len(t, ladder, 5)

	assert.Equal(t, rank.Ajaw, ladder[0].Rank)
	assert.Equal(t, rank.Kukulkan, ladder[4].Rank)
	assert.True(t, ladder[4].Unbounded, "terminal rank must be unbounded")

	// Contiguous and non-overlapping.
	for i := 0; i < len(ladder)-1; i++ {
		assert.Equal(t, ladder[i].XPMax+1, ladder[i+1].XPMin,
			"gap between %s and %s", ladder[i].Rank, ladder[i+1].Rank)
		assert.False(t, ladder[i].Unbounded)
	}

	// Ordinals are 1-based and increasing.
	for i, c := range ladder {
		assert.Equal(t, i+1, c.Order)
	}
}

func TestNext(t *testing.T) {
	t.Parallel()
	next, ok := rank.Next(rank.Ajaw)
	require.True(t, ok)
	assert.Equal(t, rank.Nacom, next)

	_, ok = rank.Next(rank.Kukulkan)
	assert.False(t, ok, "terminal rank has no next")

	_, ok = rank.Next(rank.Rank("unknown"))
	assert.False(t, ok)
}

func TestInitial(t *testing.T) {
	t.Parallel()
	assert.Equal(t, rank.Ajaw, rank.Initial())
}

func TestConfigFor(t *testing.T) {
	t.Parallel()
	cfg, err := rank.ConfigFor(rank.Nacom)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.XPMin)
	assert.Equal(t, int64(999), cfg.XPMax)
	assert.Equal(t, int64(100), cfg.CoinsBonus)

	_, err = rank.ConfigFor(rank.Rank("nope"))
	assert.ErrorIs(t, err, rank.ErrInvalidRank)
}

func TestProgressToward(t *testing.T) {
	t.Parallel()

	t.Run("midway through first rank", func(t *testing.T) {
		p, err := rank.ProgressToward(rank.Ajaw, 250)
		require.NoError(t, err)
		assert.Equal(t, 50, p.Percentage)
		require.NotNil(t, p.NextRank)
		assert.Equal(t, rank.Nacom, *p.NextRank)
		assert.Equal(t, int64(250), p.XPRemaining)
		assert.Equal(t, int64(100), p.BonusOnPromote)
		assert.False(t, p.IsMaxRank)
	})

	t.Run("exactly at next threshold", func(t *testing.T) {
		p, err := rank.ProgressToward(rank.Ajaw, 500)
		require.NoError(t, err)
		assert.Equal(t, 100, p.Percentage)
		assert.Equal(t, int64(0), p.XPRemaining)
	})

	t.Run("overshoot clamps to 100", func(t *testing.T) {
		p, err := rank.ProgressToward(rank.Ajaw, 5000)
		require.NoError(t, err)
		assert.Equal(t, 100, p.Percentage)
		assert.Equal(t, int64(0), p.XPRemaining)
	})

	t.Run("terminal rank is always 100", func(t *testing.T) {
		p, err := rank.ProgressToward(rank.Kukulkan, 2250)
		require.NoError(t, err)
		assert.True(t, p.IsMaxRank)
		assert.Nil(t, p.NextRank)
		assert.Equal(t, 100, p.Percentage)
	})

	t.Run("percentage floors", func(t *testing.T) {
		// 333/500 of the Ajaw range is 66.6%.
		p, err := rank.ProgressToward(rank.Ajaw, 333)
		require.NoError(t, err)
		assert.Equal(t, 66, p.Percentage)
	})

	t.Run("unknown rank", func(t *testing.T) {
		_, err := rank.ProgressToward(rank.Rank("nope"), 0)
		assert.ErrorIs(t, err, rank.ErrInvalidRank)
	})
}

func TestNewInitialRecord(t *testing.T) {
	t.Parallel()
	profileID := uuid.New()
	rec := rank.NewInitialRecord(profileID, testTime())
	assert.Equal(t, profileID, rec.ProfileID)
	assert.Equal(t, rank.Ajaw, rec.CurrentRank)
	assert.Nil(t, rec.PreviousRank)
	assert.True(t, rec.IsCurrent)
	assert.Equal(t, int64(0), rec.CoinsBonus)
}
