package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gamilit/progression/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
//
// Why is GetRepository part of UoW?
// - Ensures all repositories use the same DB session/transaction for true atomicity.
// - Keeps service code clean and focused on business logic.
// - Centralizes repository wiring and registry for maintainability.
// - Prevents accidental use of the wrong DB session (which would break transactionality).
// - Is idiomatic for Go UoW patterns and easy to mock in tests.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.ProfileRepository)(nil)).Elem(): func(db *gorm.DB) any { return NewProfileRepository(db) },
			reflect.TypeOf((*repository.StatsRepository)(nil)).Elem():   func(db *gorm.DB) any { return NewStatsRepository(db) },
			reflect.TypeOf((*repository.LedgerRepository)(nil)).Elem():  func(db *gorm.DB) any { return NewLedgerRepository(db) },
			reflect.TypeOf((*repository.MissionRepository)(nil)).Elem(): func(db *gorm.DB) any { return NewMissionRepository(db) },
			reflect.TypeOf((*repository.RankRepository)(nil)).Elem():    func(db *gorm.DB) any { return NewRankRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository provides generic, type-safe access to repositories using the transaction session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

// ProfileRepository implements repository.UnitOfWork.
func (u *UoW) ProfileRepository() (repository.ProfileRepository, error) {
	return NewProfileRepository(u.session()), nil
}

// StatsRepository implements repository.UnitOfWork.
func (u *UoW) StatsRepository() (repository.StatsRepository, error) {
	return NewStatsRepository(u.session()), nil
}

// LedgerRepository implements repository.UnitOfWork.
func (u *UoW) LedgerRepository() (repository.LedgerRepository, error) {
	return NewLedgerRepository(u.session()), nil
}

// MissionRepository implements repository.UnitOfWork.
func (u *UoW) MissionRepository() (repository.MissionRepository, error) {
	return NewMissionRepository(u.session()), nil
}

// RankRepository implements repository.UnitOfWork.
func (u *UoW) RankRepository() (repository.RankRepository, error) {
	return NewRankRepository(u.session()), nil
}

// session returns the transaction when inside Do, the root session otherwise.
// Read-only service paths use the root session directly.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}
