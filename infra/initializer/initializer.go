package initializer

import (
	"github.com/gamilit/progression/infra"
	infrarepo "github.com/gamilit/progression/infra/repository"
	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/eventbus"
	"github.com/gamilit/progression/pkg/lock"
)

// InitializeDependencies initializes all the application dependencies.
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	err error,
) {
	deps = &config.Deps{Config: cfg}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	db, err := infra.NewDBConnection(*cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if err := infra.AutoMigrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		return nil, err
	}

	deps.Uow = infrarepo.NewUoW(db)
	deps.EventBus = eventbus.NewSimpleEventBus()
	deps.Locks = lock.NewKeyed()

	return deps, nil
}
