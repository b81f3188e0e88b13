package main

import (
	"fmt"
	"log/slog"

	log "github.com/charmbracelet/log"
	"github.com/gamilit/progression/app"
	"github.com/gamilit/progression/infra/initializer"
	"github.com/gamilit/progression/pkg/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logger := slog.Default()
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	a := app.New(*deps)
	a.Cron.Start()
	defer a.Cron.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	return a.Fiber.Listen(addr)
}
