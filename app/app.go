// Package app assembles the services, the Fiber application and the
// background expiry sweeper from the initialized dependencies.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gamilit/progression/pkg/config"
	"github.com/gamilit/progression/pkg/domain/events"
	"github.com/gamilit/progression/pkg/eventbus"
	ledgersvc "github.com/gamilit/progression/pkg/service/ledger"
	missionsvc "github.com/gamilit/progression/pkg/service/mission"
	ranksvc "github.com/gamilit/progression/pkg/service/rank"
	statssvc "github.com/gamilit/progression/pkg/service/userstats"
	"github.com/gamilit/progression/webapi/coins"
	"github.com/gamilit/progression/webapi/common"
	"github.com/gamilit/progression/webapi/missions"
	"github.com/gamilit/progression/webapi/ranks"
	"github.com/gamilit/progression/webapi/stats"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

// App bundles the HTTP surface and the background sweeper.
type App struct {
	Fiber *fiber.App
	Cron  *cron.Cron
}

// New builds all services, registers event handlers, wires the routes and
// schedules the expiry sweep.
func New(deps config.Deps) *App {
	coinsSvc := ledgersvc.NewService(deps)
	statsSvc := statssvc.NewService(deps)
	rankSvc := ranksvc.NewService(deps, coinsSvc)
	missionSvc := missionsvc.NewService(deps, coinsSvc, statsSvc)

	registerEventLogging(deps)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	maxRequests := 100
	window := time.Minute
	if deps.Config.RateLimit != nil {
		maxRequests = deps.Config.RateLimit.MaxRequests
		window = deps.Config.RateLimit.Window
	}
	app.Use(limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Use X-Forwarded-For header if available (for load balancers/proxies)
			// Fall back to X-Real-IP, then to direct IP
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(c, "Too Many Requests",
				errors.New("rate limit exceeded"), "rate limit exceeded")
		},
	}))
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("App is working! 🚀")
	})

	stats.Routes(app, statsSvc)
	coins.Routes(app, coinsSvc)
	ranks.Routes(app, rankSvc)
	missions.Routes(app, missionSvc)

	c := cron.New()
	schedule := "@every 1m"
	batch := 500
	if deps.Config.Sweep != nil {
		schedule = deps.Config.Sweep.Schedule
		batch = deps.Config.Sweep.BatchSize
	}
	if _, err := c.AddFunc(schedule, func() {
		if _, err := missionSvc.ExpireSweep(context.Background(), time.Now(), batch); err != nil {
			deps.Logger.Error("mission expiry sweep failed", "error", err)
		}
	}); err != nil {
		deps.Logger.Error("failed to schedule expiry sweep", "error", err)
	}

	return &App{Fiber: app, Cron: c}
}

// registerEventLogging subscribes observational log handlers for the domain
// events. Handlers never drive state.
func registerEventLogging(deps config.Deps) {
	if deps.EventBus == nil {
		return
	}
	logger := deps.Logger

	deps.EventBus.Subscribe("MissionCompletedEvent", func(ctx context.Context, e eventbus.Event) {
		if ev, ok := e.(events.MissionCompletedEvent); ok {
			logger.Info("mission completed",
				"missionID", ev.MissionID, "profileID", ev.ProfileID,
				"template", ev.TemplateID, "coins", ev.Rewards.Coins, "xp", ev.Rewards.XP)
		}
	})
	deps.EventBus.Subscribe("RewardsClaimedEvent", func(ctx context.Context, e eventbus.Event) {
		if ev, ok := e.(events.RewardsClaimedEvent); ok {
			logger.Info("mission rewards claimed",
				"missionID", ev.MissionID, "profileID", ev.ProfileID,
				"coins", ev.Coins, "xp", ev.XP)
		}
	})
	deps.EventBus.Subscribe("RankPromotedEvent", func(ctx context.Context, e eventbus.Event) {
		if ev, ok := e.(events.RankPromotedEvent); ok {
			logger.Info("rank promoted",
				"profileID", ev.ProfileID, "from", ev.PreviousRank,
				"to", ev.NewRank, "bonus", ev.CoinsBonus)
		}
	})
}
