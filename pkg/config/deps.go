package config

import (
	"log/slog"

	"github.com/gamilit/progression/pkg/eventbus"
	"github.com/gamilit/progression/pkg/lock"
	"github.com/gamilit/progression/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
// Locks is the process-wide per-user mutex set: every service that mutates a
// user's rows serializes on the same instance, so cross-service interleavings
// (a rank promotion against a coin credit, say) cannot lose updates on the
// shared stats row.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.EventBus
	Logger   *slog.Logger
	Locks    *lock.Keyed
	Config   *App
}
