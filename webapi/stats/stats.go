// Package stats exposes account initialization and the per-user stats row
// over HTTP.
package stats

import (
	"github.com/gamilit/progression/pkg/middleware"
	statssvc "github.com/gamilit/progression/pkg/service/userstats"
	"github.com/gamilit/progression/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// AddXPRequest is the body of POST /stats/xp.
type AddXPRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// Routes registers HTTP routes for user stats operations.
//
// Routes:
//   - POST /stats/initialize : Provision profile, stats, initial rank and
//     welcome bonus; idempotent.
//   - GET  /stats            : The user's stats row.
//   - POST /stats/xp         : Grant experience.
func Routes(app *fiber.App, statsSvc *statssvc.Service) {
	app.Post("/stats/initialize", middleware.UserRequired(), Initialize(statsSvc))
	app.Get("/stats", middleware.UserRequired(), Get(statsSvc))
	app.Post("/stats/xp", middleware.UserRequired(), AddXP(statsSvc))
}

// Initialize returns a Fiber handler that provisions a user's gamification
// state.
func Initialize(statsSvc *statssvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		st, err := statsSvc.Initialize(c.Context(), userID)
		if err != nil {
			log.Errorf("Failed to initialize stats: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to initialize", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Stats initialized", st)
	}
}

// Get returns a Fiber handler for the user's stats row.
func Get(statsSvc *statssvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		st, err := statsSvc.Get(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get stats", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Stats retrieved", st)
	}
}

// AddXP returns a Fiber handler that grants experience.
func AddXP(statsSvc *statssvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		input, err := common.BindAndValidate[AddXPRequest](c)
		if input == nil {
			return err // error response already written
		}
		st, err := statsSvc.AddXP(c.Context(), userID, input.Amount)
		if err != nil {
			log.Errorf("Failed to add XP: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to add XP", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "XP added", st)
	}
}
