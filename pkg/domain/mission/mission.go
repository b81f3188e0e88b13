// Package mission owns the multi-objective mission aggregate and its
// lifecycle state machine: active -> in_progress -> completed -> claimed,
// with the expiry sweep pushing non-terminal missions to expired.
package mission

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a mission lookup fails.
	ErrNotFound = errors.New("mission not found")

	// ErrNotOwner is returned when a mission belongs to a different user.
	ErrNotOwner = errors.New("mission does not belong to this user")

	// ErrInvalidTransition is returned when an operation is not valid for
	// the mission's current status.
	ErrInvalidTransition = errors.New("invalid mission transition")

	// ErrExpired is returned when progress is reported on an expired mission.
	ErrExpired = errors.New("mission has expired")

	// ErrAlreadyClaimed is returned when a claimed mission is touched again.
	ErrAlreadyClaimed = errors.New("mission rewards already claimed")

	// ErrNotCompleted is returned when claiming a mission that is not in the
	// completed state.
	ErrNotCompleted = errors.New("mission is not completed")

	// ErrObjectiveNotFound is returned when a progress update names an
	// objective type the mission does not carry.
	ErrObjectiveNotFound = errors.New("objective type not found in mission")

	// ErrIncrementNotPositive is returned when a progress increment is < 1.
	ErrIncrementNotPositive = errors.New("increment must be at least 1")

	// ErrDuplicateInstance is returned when generation collides with an
	// existing (user, template, period) instance.
	ErrDuplicateInstance = errors.New("mission instance already exists for period")
)

// Type distinguishes recurring mission periods from one-off specials.
type Type string

const (
	TypeDaily   Type = "daily"
	TypeWeekly  Type = "weekly"
	TypeSpecial Type = "special"
)

// Valid reports whether t is a known mission type.
func (t Type) Valid() bool {
	switch t {
	case TypeDaily, TypeWeekly, TypeSpecial:
		return true
	}
	return false
}

// Status is the lifecycle state of a mission instance. Active means "not
// yet touched": any progress update exits it.
type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusClaimed    Status = "claimed"
	StatusExpired    Status = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusClaimed || s == StatusExpired
}

// ObjectiveType selects which counter a progress update increments.
type ObjectiveType string

const (
	ObjectiveCompleteExercises ObjectiveType = "complete_exercises"
	ObjectiveCorrectStreak     ObjectiveType = "correct_streak"
	ObjectiveStudyTime         ObjectiveType = "study_time"
	ObjectiveConsecutiveDays   ObjectiveType = "consecutive_days"
)

// Valid reports whether o is a known objective type.
func (o ObjectiveType) Valid() bool {
	switch o {
	case ObjectiveCompleteExercises, ObjectiveCorrectStreak,
		ObjectiveStudyTime, ObjectiveConsecutiveDays:
		return true
	}
	return false
}

// Objective is one counter inside a mission. Current never exceeds Target.
type Objective struct {
	Type        ObjectiveType `json:"type"`
	Target      int64         `json:"target"`
	Current     int64         `json:"current"`
	Description string        `json:"description,omitempty"`
}

// Rewards is the bundle paid out when a mission is claimed.
type Rewards struct {
	Coins int64    `json:"coins"`
	XP    int64    `json:"xp"`
	Items []string `json:"items,omitempty"`
}

// Mission is one instance of a mission template assigned to a user for a
// period. Progress is the mean over objectives of min(current/target, 1)
// expressed as 0-100.
type Mission struct {
	ID          uuid.UUID
	ProfileID   uuid.UUID
	TemplateID  string
	Title       string
	Description string
	Type        Type
	Objectives  []Objective
	Rewards     Rewards
	Status      Status
	Progress    float64
	PeriodKey   string
	StartDate   time.Time
	EndDate     time.Time
	CompletedAt *time.Time
	ClaimedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const completionEpsilon = 1e-9

// Completed reports whether progress has reached 100%.
func (m *Mission) Completed() bool {
	return m.Progress >= 100-completionEpsilon
}

func (m *Mission) requireOwner(profileID uuid.UUID) error {
	if m.ProfileID != profileID {
		return ErrNotOwner
	}
	return nil
}

// Start transitions an untouched mission to in_progress.
func (m *Mission) Start(profileID uuid.UUID, now time.Time) error {
	if err := m.requireOwner(profileID); err != nil {
		return err
	}
	if m.Status != StatusActive {
		return ErrInvalidTransition
	}
	m.Status = StatusInProgress
	m.UpdatedAt = now
	return nil
}

// ApplyProgress increments the matching objective, capped at its target,
// and recomputes the overall progress. Reaching 100% completes the mission;
// any first touch moves an active mission to in_progress even at 0%.
func (m *Mission) ApplyProgress(profileID uuid.UUID, objType ObjectiveType, increment int64, now time.Time) error {
	if err := m.requireOwner(profileID); err != nil {
		return err
	}
	if increment < 1 {
		return ErrIncrementNotPositive
	}
	switch m.Status {
	case StatusExpired:
		return ErrExpired
	case StatusClaimed:
		return ErrAlreadyClaimed
	}

	idx := -1
	for i := range m.Objectives {
		if m.Objectives[i].Type == objType {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrObjectiveNotFound
	}

	obj := &m.Objectives[idx]
	obj.Current += increment
	if obj.Current > obj.Target {
		obj.Current = obj.Target
	}

	m.recomputeProgress()
	if m.Completed() {
		if m.Status != StatusCompleted {
			m.Status = StatusCompleted
			t := now
			m.CompletedAt = &t
		}
	} else if m.Status == StatusActive {
		m.Status = StatusInProgress
	}
	m.UpdatedAt = now
	return nil
}

// Claim moves a completed mission to the terminal claimed state. Reward
// payout happens in the service layer after this transition is persisted.
func (m *Mission) Claim(profileID uuid.UUID, now time.Time) error {
	if err := m.requireOwner(profileID); err != nil {
		return err
	}
	if m.Status == StatusClaimed || m.ClaimedAt != nil {
		return ErrAlreadyClaimed
	}
	if m.Status != StatusCompleted {
		return ErrNotCompleted
	}
	m.Status = StatusClaimed
	t := now
	m.ClaimedAt = &t
	m.UpdatedAt = now
	return nil
}

// Expire moves a non-terminal mission past its end date to expired.
// Returns false when nothing changed.
func (m *Mission) Expire(now time.Time) bool {
	if m.Status != StatusActive && m.Status != StatusInProgress {
		return false
	}
	if !m.EndDate.Before(now) {
		return false
	}
	m.Status = StatusExpired
	m.UpdatedAt = now
	return true
}

func (m *Mission) recomputeProgress() {
	if len(m.Objectives) == 0 {
		m.Progress = 0
		return
	}
	var sum float64
	for _, obj := range m.Objectives {
		if obj.Target <= 0 {
			continue
		}
		ratio := float64(obj.Current) / float64(obj.Target)
		if ratio > 1 {
			ratio = 1
		}
		sum += ratio * 100
	}
	m.Progress = sum / float64(len(m.Objectives))
	if m.Progress > 100 {
		m.Progress = 100
	}
}
