// Package ranks exposes the rank ladder and promotion flow over HTTP.
package ranks

import (
	"github.com/gamilit/progression/pkg/middleware"
	ranksvc "github.com/gamilit/progression/pkg/service/rank"
	"github.com/gamilit/progression/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers HTTP routes for rank operations.
//
// Routes:
//   - GET  /ranks/ladder   : The full static ladder configuration.
//   - GET  /ranks/current  : The user's current rank record.
//   - GET  /ranks/progress : Progress toward the next rank.
//   - GET  /ranks/history  : The user's full rank history.
//   - POST /ranks/promote  : Promote the user one rank.
func Routes(app *fiber.App, rankSvc *ranksvc.Service) {
	app.Get("/ranks/ladder", GetLadder(rankSvc))
	app.Get("/ranks/current", middleware.UserRequired(), GetCurrent(rankSvc))
	app.Get("/ranks/progress", middleware.UserRequired(), GetProgress(rankSvc))
	app.Get("/ranks/history", middleware.UserRequired(), GetHistory(rankSvc))
	app.Post("/ranks/promote", middleware.UserRequired(), Promote(rankSvc))
}

// GetLadder returns a Fiber handler for the static ladder configuration.
func GetLadder(rankSvc *ranksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Ladder retrieved", rankSvc.Ladder())
	}
}

// GetCurrent returns a Fiber handler for the user's current rank record.
func GetCurrent(rankSvc *ranksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		rec, err := rankSvc.Current(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get current rank", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Current rank retrieved", rec)
	}
}

// GetProgress returns a Fiber handler for promotion progress. The response
// includes eligibility so clients can light up the promote button.
func GetProgress(rankSvc *ranksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		progress, err := rankSvc.Progress(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get rank progress", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Rank progress retrieved", fiber.Map{
			"progress": progress,
			"eligible": rankSvc.Eligible(c.Context(), userID),
		})
	}
}

// GetHistory returns a Fiber handler for the user's rank history.
func GetHistory(rankSvc *ranksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		history, err := rankSvc.History(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get rank history", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Rank history retrieved", history)
	}
}

// Promote returns a Fiber handler that advances the user one rank.
func Promote(rankSvc *ranksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		rec, err := rankSvc.Promote(c.Context(), userID)
		if err != nil {
			log.Errorf("Failed to promote: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to promote", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Promotion successful", rec)
	}
}
