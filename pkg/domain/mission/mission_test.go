package mission_test

import (
	"testing"
	"time"

	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNow() time.Time {
	// A Saturday.
	return time.Date(2026, time.August, 29, 10, 30, 0, 0, time.UTC)
}

func newTestMission(profileID uuid.UUID, objectives ...mission.Objective) *mission.Mission {
	return mission.Instantiate(mission.Template{
		ID:         "test_template",
		Title:      "Test mission",
		Type:       mission.TypeDaily,
		Objectives: objectives,
		Rewards:    mission.Rewards{Coins: 25, XP: 50},
	}, profileID, testNow())
}

func TestInstantiate(t *testing.T) {
	t.Parallel()
	profileID := uuid.New()
	m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})

	assert.Equal(t, mission.StatusActive, m.Status)
	assert.Equal(t, profileID, m.ProfileID)
	assert.Equal(t, "2026-08-29", m.PeriodKey)
	assert.Equal(t, float64(0), m.Progress)
	assert.Equal(t, time.Date(2026, time.August, 29, 23, 59, 59, 0, time.UTC), m.EndDate)
}

func TestInstantiateWeekly(t *testing.T) {
	t.Parallel()
	m := mission.Instantiate(mission.Template{
		ID:         "weekly_test",
		Type:       mission.TypeWeekly,
		Objectives: []mission.Objective{{Type: mission.ObjectiveCompleteExercises, Target: 15}},
	}, uuid.New(), testNow())

	assert.Equal(t, "2026-W35", m.PeriodKey)
	// The ISO week of Saturday 2026-08-29 closes on Sunday 2026-08-30.
	assert.Equal(t, time.Date(2026, time.August, 30, 23, 59, 59, 0, time.UTC), m.EndDate)
}

func TestPeriodKeys(t *testing.T) {
	t.Parallel()

	t.Run("daily", func(t *testing.T) {
		assert.Equal(t, "2026-08-29", mission.DailyPeriodKey(testNow()))
	})

	t.Run("iso week spans new year", func(t *testing.T) {
		// 2027-01-01 is a Friday in ISO week 53 of 2026.
		jan1 := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, "2026-W53", mission.WeeklyPeriodKey(jan1))
	})

	t.Run("week pads to two digits", func(t *testing.T) {
		jan8 := time.Date(2026, time.January, 8, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, "2026-W02", mission.WeeklyPeriodKey(jan8))
	})
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	daily := mission.DailyTemplates()
	require.Len(t, daily, 3)
	weekly := mission.WeeklyTemplates()
	require.Len(t, weekly, 2)

	assert.Equal(t, int64(25), daily[0].Rewards.Coins)
	assert.Equal(t, int64(50), daily[0].Rewards.XP)
	assert.Equal(t, int64(100), weekly[0].Rewards.Coins)
	assert.Equal(t, int64(300), weekly[1].Rewards.XP)

	assert.Nil(t, mission.TemplatesFor(mission.TypeSpecial))
}

func TestStart(t *testing.T) {
	t.Parallel()
	profileID := uuid.New()
	m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})

	require.NoError(t, m.Start(profileID, testNow()))
	assert.Equal(t, mission.StatusInProgress, m.Status)

	t.Run("twice fails", func(t *testing.T) {
		assert.ErrorIs(t, m.Start(profileID, testNow()), mission.ErrInvalidTransition)
	})

	t.Run("wrong owner", func(t *testing.T) {
		other := newTestMission(uuid.New(), mission.Objective{Type: mission.ObjectiveStudyTime, Target: 15})
		assert.ErrorIs(t, other.Start(profileID, testNow()), mission.ErrNotOwner)
	})
}

func TestApplyProgress(t *testing.T) {
	t.Parallel()
	profileID := uuid.New()

	t.Run("first touch leaves active", func(t *testing.T) {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		require.NoError(t, m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 1, testNow()))
		assert.Equal(t, mission.StatusInProgress, m.Status)
		assert.InDelta(t, 33.33, m.Progress, 0.01)
	})

	t.Run("caps at target", func(t *testing.T) {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		require.NoError(t, m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 99, testNow()))
		assert.Equal(t, int64(3), m.Objectives[0].Current)
		assert.Equal(t, float64(100), m.Progress)
		assert.Equal(t, mission.StatusCompleted, m.Status)
		require.NotNil(t, m.CompletedAt)
	})

	t.Run("mean over objectives", func(t *testing.T) {
		m := newTestMission(profileID,
			mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 4},
			mission.Objective{Type: mission.ObjectiveStudyTime, Target: 10},
		)
		require.NoError(t, m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 2, testNow()))
		require.NoError(t, m.ApplyProgress(profileID, mission.ObjectiveStudyTime, 10, testNow()))
		// (50 + 100) / 2
		assert.InDelta(t, 75, m.Progress, 0.001)
		assert.Equal(t, mission.StatusInProgress, m.Status)
	})

	t.Run("completion requires every objective", func(t *testing.T) {
		m := newTestMission(profileID,
			mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 4},
			mission.Objective{Type: mission.ObjectiveStudyTime, Target: 10},
		)
		require.NoError(t, m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 4, testNow()))
		assert.Equal(t, mission.StatusInProgress, m.Status)
		require.NoError(t, m.ApplyProgress(profileID, mission.ObjectiveStudyTime, 10, testNow()))
		assert.Equal(t, mission.StatusCompleted, m.Status)
	})

	t.Run("rejects non-positive increment", func(t *testing.T) {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		assert.ErrorIs(t,
			m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 0, testNow()),
			mission.ErrIncrementNotPositive)
	})

	t.Run("rejects unknown objective", func(t *testing.T) {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		assert.ErrorIs(t,
			m.ApplyProgress(profileID, mission.ObjectiveConsecutiveDays, 1, testNow()),
			mission.ErrObjectiveNotFound)
	})

	t.Run("rejects expired mission", func(t *testing.T) {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		require.True(t, m.Expire(m.EndDate.Add(time.Second)))
		assert.ErrorIs(t,
			m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 1, testNow()),
			mission.ErrExpired)
	})

	t.Run("wrong owner", func(t *testing.T) {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		assert.ErrorIs(t,
			m.ApplyProgress(uuid.New(), mission.ObjectiveCompleteExercises, 1, testNow()),
			mission.ErrNotOwner)
	})
}

func TestClaim(t *testing.T) {
	t.Parallel()
	profileID := uuid.New()

	completed := func() *mission.Mission {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		require.NoError(t, m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 3, testNow()))
		return m
	}

	t.Run("claims completed mission", func(t *testing.T) {
		m := completed()
		require.NoError(t, m.Claim(profileID, testNow()))
		assert.Equal(t, mission.StatusClaimed, m.Status)
		require.NotNil(t, m.ClaimedAt)
	})

	t.Run("claim twice fails", func(t *testing.T) {
		m := completed()
		require.NoError(t, m.Claim(profileID, testNow()))
		assert.ErrorIs(t, m.Claim(profileID, testNow()), mission.ErrAlreadyClaimed)
	})

	t.Run("cannot claim incomplete", func(t *testing.T) {
		m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})
		assert.ErrorIs(t, m.Claim(profileID, testNow()), mission.ErrNotCompleted)
	})

	t.Run("wrong owner", func(t *testing.T) {
		m := completed()
		assert.ErrorIs(t, m.Claim(uuid.New(), testNow()), mission.ErrNotOwner)
	})

	t.Run("progress on claimed mission fails", func(t *testing.T) {
		m := completed()
		require.NoError(t, m.Claim(profileID, testNow()))
		assert.ErrorIs(t,
			m.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 1, testNow()),
			mission.ErrAlreadyClaimed)
	})
}

func TestExpire(t *testing.T) {
	t.Parallel()
	profileID := uuid.New()
	m := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 3})

	t.Run("not yet due", func(t *testing.T) {
		assert.False(t, m.Expire(m.EndDate))
		assert.Equal(t, mission.StatusActive, m.Status)
	})

	t.Run("past end date", func(t *testing.T) {
		require.True(t, m.Expire(m.EndDate.Add(time.Second)))
		assert.Equal(t, mission.StatusExpired, m.Status)
	})

	t.Run("idempotent", func(t *testing.T) {
		assert.False(t, m.Expire(m.EndDate.Add(time.Hour)))
	})

	t.Run("claimed missions never expire", func(t *testing.T) {
		c := newTestMission(profileID, mission.Objective{Type: mission.ObjectiveCompleteExercises, Target: 1})
		require.NoError(t, c.ApplyProgress(profileID, mission.ObjectiveCompleteExercises, 1, testNow()))
		require.NoError(t, c.Claim(profileID, testNow()))
		assert.False(t, c.Expire(c.EndDate.Add(time.Hour)))
		assert.Equal(t, mission.StatusClaimed, c.Status)
	})
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()
	assert.True(t, mission.StatusClaimed.Terminal())
	assert.True(t, mission.StatusExpired.Terminal())
	assert.False(t, mission.StatusActive.Terminal())
	assert.False(t, mission.StatusInProgress.Terminal())
	assert.False(t, mission.StatusCompleted.Terminal())
}
