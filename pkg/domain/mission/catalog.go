package mission

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Template is a fixed mission definition the engine instantiates per user
// per period.
type Template struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Objectives  []Objective
	Rewards     Rewards
}

// DailyTemplates returns the fixed catalog of daily missions.
func DailyTemplates() []Template {
	return []Template{
		{
			ID:          "daily_complete_3",
			Title:       "Daily dedication",
			Description: "Complete 3 exercises today",
			Type:        TypeDaily,
			Objectives: []Objective{
				{Type: ObjectiveCompleteExercises, Target: 3, Description: "Complete 3 exercises"},
			},
			Rewards: Rewards{Coins: 25, XP: 50},
		},
		{
			ID:          "daily_streak_2",
			Title:       "Sharp mind",
			Description: "Answer 2 exercises correctly in a row",
			Type:        TypeDaily,
			Objectives: []Objective{
				{Type: ObjectiveCorrectStreak, Target: 2, Description: "Get a streak of 2 correct answers"},
			},
			Rewards: Rewards{Coins: 15, XP: 30},
		},
		{
			ID:          "daily_study_15",
			Title:       "Time well spent",
			Description: "Study for 15 minutes today",
			Type:        TypeDaily,
			Objectives: []Objective{
				{Type: ObjectiveStudyTime, Target: 15, Description: "Study for 15 minutes"},
			},
			Rewards: Rewards{Coins: 20, XP: 40},
		},
	}
}

// WeeklyTemplates returns the fixed catalog of weekly missions.
func WeeklyTemplates() []Template {
	return []Template{
		{
			ID:          "weekly_complete_15",
			Title:       "Weekly warrior",
			Description: "Complete 15 exercises this week",
			Type:        TypeWeekly,
			Objectives: []Objective{
				{Type: ObjectiveCompleteExercises, Target: 15, Description: "Complete 15 exercises"},
			},
			Rewards: Rewards{Coins: 100, XP: 200},
		},
		{
			ID:          "weekly_consistency_5",
			Title:       "Constant learner",
			Description: "Study 5 days in a row this week",
			Type:        TypeWeekly,
			Objectives: []Objective{
				{Type: ObjectiveConsecutiveDays, Target: 5, Description: "Study on 5 consecutive days"},
			},
			Rewards: Rewards{Coins: 150, XP: 300},
		},
	}
}

// TemplatesFor returns the catalog for the given recurring mission type.
// Specials have no catalog; they are created individually.
func TemplatesFor(t Type) []Template {
	switch t {
	case TypeDaily:
		return DailyTemplates()
	case TypeWeekly:
		return WeeklyTemplates()
	}
	return nil
}

// PeriodKeyFor returns the dedup key for a recurring mission type at the
// given instant: the calendar day for dailies, the ISO week for weeklies.
func PeriodKeyFor(t Type, now time.Time) string {
	if t == TypeWeekly {
		return WeeklyPeriodKey(now)
	}
	return DailyPeriodKey(now)
}

// DailyPeriodKey formats now as the calendar-day key, e.g. "2026-08-29".
func DailyPeriodKey(now time.Time) string {
	return now.Format("2006-01-02")
}

// WeeklyPeriodKey formats now as the ISO-week key, e.g. "2026-W35".
func WeeklyPeriodKey(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// EndOfDay returns 23:59:59 of now's calendar day.
func EndOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, now.Location())
}

// EndOfISOWeek returns 23:59:59 of the Sunday closing now's ISO week.
func EndOfISOWeek(now time.Time) time.Time {
	wd := int(now.Weekday())
	if wd == 0 {
		wd = 7
	}
	sunday := now.AddDate(0, 0, 7-wd)
	return EndOfDay(sunday)
}

// Instantiate builds a fresh mission instance from a template for a user.
// StartDate is the generation instant; EndDate closes the period.
func Instantiate(tpl Template, profileID uuid.UUID, now time.Time) *Mission {
	objectives := make([]Objective, len(tpl.Objectives))
	copy(objectives, tpl.Objectives)

	var end time.Time
	switch tpl.Type {
	case TypeWeekly:
		end = EndOfISOWeek(now)
	default:
		end = EndOfDay(now)
	}

	return &Mission{
		ID:          uuid.New(),
		ProfileID:   profileID,
		TemplateID:  tpl.ID,
		Title:       tpl.Title,
		Description: tpl.Description,
		Type:        tpl.Type,
		Objectives:  objectives,
		Rewards:     tpl.Rewards,
		Status:      StatusActive,
		PeriodKey:   PeriodKeyFor(tpl.Type, now),
		StartDate:   now,
		EndDate:     end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
