// Package ledger defines the append-only coin transaction log. Every balance
// mutation writes exactly one immutable Entry; corrections are new entries,
// never edits. Folding a user's entries from zero must always reproduce the
// denormalized balance held on their stats row.
package ledger

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAmountNotPositive is returned when a credit or debit amount is not
	// strictly positive. Direction is implied by the operation, never by a
	// signed argument.
	ErrAmountNotPositive = errors.New("amount must be positive")

	// ErrInsufficientFunds is returned when a debit exceeds the current
	// balance. No entry is written and the balance is untouched.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidMultiplier is returned when a credit multiplier is negative.
	ErrInvalidMultiplier = errors.New("multiplier must not be negative")

	// ErrBalanceOverflow is returned when a credit would overflow the
	// balance. This is a fatal condition, not a recoverable one.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Kind tags the business reason for a transaction.
type Kind string

const (
	KindEarnedExercise    Kind = "earned_exercise"
	KindEarnedModule      Kind = "earned_module"
	KindEarnedAchievement Kind = "earned_achievement"
	KindEarnedRank        Kind = "earned_rank"
	KindEarnedStreak      Kind = "earned_streak"
	KindEarnedDaily       Kind = "earned_daily"
	KindEarnedMission     Kind = "earned_mission"
	KindEarnedBonus       Kind = "earned_bonus"

	KindSpentPowerup Kind = "spent_powerup"
	KindSpentHint    Kind = "spent_hint"
	KindSpentRetry   Kind = "spent_retry"

	KindAdminAdjustment Kind = "admin_adjustment"
	KindRefund          Kind = "refund"
	KindBonus           Kind = "bonus"
	KindWelcomeBonus    Kind = "welcome_bonus"
)

var kinds = map[Kind]struct{}{
	KindEarnedExercise: {}, KindEarnedModule: {}, KindEarnedAchievement: {},
	KindEarnedRank: {}, KindEarnedStreak: {}, KindEarnedDaily: {},
	KindEarnedMission: {}, KindEarnedBonus: {},
	KindSpentPowerup: {}, KindSpentHint: {}, KindSpentRetry: {},
	KindAdminAdjustment: {}, KindRefund: {}, KindBonus: {}, KindWelcomeBonus: {},
}

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Reference points at the entity that caused a transaction (a mission, a
// rank record, an exercise).
type Reference struct {
	ID   uuid.UUID
	Kind string
}

// Entry is a single immutable row of the ledger. Amount is signed: positive
// for credits, negative for debits. BalanceAfter == BalanceBefore + Amount
// and BalanceAfter >= 0 always hold.
type Entry struct {
	ID            uuid.UUID
	ProfileID     uuid.UUID
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	Kind          Kind
	Description   string
	Reference     *Reference
	Multiplier    float64
	BonusApplied  bool
	Metadata      map[string]any
	CreatedAt     time.Time
}

// ApplyMultiplier scales a credit amount, flooring the result the way the
// shop and reward flows expect. Only negative multipliers are rejected here;
// the crediting service maps an unset (zero) multiplier to 1 before calling.
func ApplyMultiplier(amount int64, multiplier float64) (int64, error) {
	if multiplier < 0 {
		return 0, ErrInvalidMultiplier
	}
	return int64(math.Floor(float64(amount) * multiplier)), nil
}

// CheckCredit validates a credit of amount against the current balance and
// returns the resulting balance.
func CheckCredit(balance, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrAmountNotPositive
	}
	if balance > math.MaxInt64-amount {
		return 0, ErrBalanceOverflow
	}
	return balance + amount, nil
}

// CheckDebit validates a debit of amount against the current balance and
// returns the resulting balance.
func CheckDebit(balance, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrAmountNotPositive
	}
	if balance < amount {
		return 0, ErrInsufficientFunds
	}
	return balance - amount, nil
}

// Filter narrows a transaction history read. All fields are optional and
// combine with AND; filtering is a pure post-read concern.
type Filter struct {
	Kind      *Kind
	Reference *Reference
	From      *time.Time
	To        *time.Time
	MinAmount *int64
	MaxAmount *int64
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *Entry) bool {
	if f.Kind != nil && e.Kind != *f.Kind {
		return false
	}
	if f.Reference != nil {
		if e.Reference == nil ||
			e.Reference.ID != f.Reference.ID ||
			e.Reference.Kind != f.Reference.Kind {
			return false
		}
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	if f.MinAmount != nil && e.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && e.Amount > *f.MaxAmount {
		return false
	}
	return true
}
