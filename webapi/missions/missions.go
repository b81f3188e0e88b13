// Package missions exposes the mission catalog and lifecycle over HTTP.
package missions

import (
	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/gamilit/progression/pkg/middleware"
	missionsvc "github.com/gamilit/progression/pkg/service/mission"
	"github.com/gamilit/progression/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// ProgressRequest is the body of POST /missions/:id/progress.
type ProgressRequest struct {
	ObjectiveType string `json:"objective_type" validate:"required"`
	Increment     int64  `json:"increment" validate:"required,gte=1"`
}

// Routes registers HTTP routes for mission operations.
//
// Routes:
//   - GET  /missions              : All missions, or the current period's
//     missions of one type via ?type=daily|weekly|special (generating any
//     catalog instances that do not exist yet).
//   - GET  /missions/summary      : Aggregate mission counters.
//   - GET  /missions/:id          : One mission.
//   - POST /missions/:id/start    : Move an untouched mission to in_progress.
//   - POST /missions/:id/progress : Increment one objective.
//   - POST /missions/:id/claim    : Claim a completed mission's rewards.
func Routes(app *fiber.App, missionSvc *missionsvc.Service) {
	app.Get("/missions", middleware.UserRequired(), List(missionSvc))
	app.Get("/missions/summary", middleware.UserRequired(), GetSummary(missionSvc))
	app.Get("/missions/:id", middleware.UserRequired(), Get(missionSvc))
	app.Post("/missions/:id/start", middleware.UserRequired(), Start(missionSvc))
	app.Post("/missions/:id/progress", middleware.UserRequired(), UpdateProgress(missionSvc))
	app.Post("/missions/:id/claim", middleware.UserRequired(), Claim(missionSvc))
}

// List returns a Fiber handler that lists missions, lazily generating the
// current period's catalog instances when a recurring type is requested.
func List(missionSvc *missionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}

		raw := c.Query("type")
		if raw == "" {
			all, err := missionSvc.ListAll(c.Context(), userID)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to list missions", err)
			}
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Missions retrieved", all)
		}

		t := mission.Type(raw)
		if !t.Valid() {
			return common.ProblemDetailsJSON(c, "Invalid mission type", nil, "unknown mission type: "+raw)
		}
		ms, err := missionSvc.ListByType(c.Context(), userID, t)
		if err != nil {
			log.Errorf("Failed to list %s missions: %v", t, err)
			return common.ProblemDetailsJSON(c, "Failed to list missions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Missions retrieved", ms)
	}
}

// GetSummary returns a Fiber handler for the aggregate mission counters.
func GetSummary(missionSvc *missionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		summary, err := missionSvc.Summary(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get mission summary", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Mission summary retrieved", summary)
	}
}

// Get returns a Fiber handler for a single mission.
func Get(missionSvc *missionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		missionID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid mission ID", nil, err.Error())
		}
		m, err := missionSvc.Get(c.Context(), userID, missionID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get mission", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Mission retrieved", m)
	}
}

// Start returns a Fiber handler that moves a mission to in_progress.
func Start(missionSvc *missionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		missionID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid mission ID", nil, err.Error())
		}
		m, err := missionSvc.Start(c.Context(), userID, missionID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to start mission", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Mission started", m)
	}
}

// UpdateProgress returns a Fiber handler that increments one objective.
func UpdateProgress(missionSvc *missionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		missionID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid mission ID", nil, err.Error())
		}
		input, err := common.BindAndValidate[ProgressRequest](c)
		if input == nil {
			return err // error response already written
		}
		objType := mission.ObjectiveType(input.ObjectiveType)
		if !objType.Valid() {
			return common.ProblemDetailsJSON(c, "Invalid objective type", nil,
				"unknown objective type: "+input.ObjectiveType)
		}
		m, err := missionSvc.UpdateProgress(c.Context(), userID, missionID, objType, input.Increment)
		if err != nil {
			log.Errorf("Failed to update mission progress: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to update progress", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Progress updated", m)
	}
}

// Claim returns a Fiber handler that claims a completed mission's rewards.
func Claim(missionSvc *missionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		missionID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid mission ID", nil, err.Error())
		}
		m, err := missionSvc.Claim(c.Context(), userID, missionID)
		if err != nil {
			log.Errorf("Failed to claim mission: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to claim mission", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Rewards claimed", m)
	}
}
