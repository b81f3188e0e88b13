// Package coins exposes the coin ledger over HTTP: balance, history, daily
// summaries, the audit endpoint and the earn/spend operations.
package coins

import (
	"strconv"
	"time"

	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/middleware"
	ledgersvc "github.com/gamilit/progression/pkg/service/ledger"
	"github.com/gamilit/progression/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// EarnRequest is the body of POST /coins/earn.
type EarnRequest struct {
	Amount      int64   `json:"amount" validate:"required,gt=0"`
	Kind        string  `json:"kind" validate:"required"`
	Description string  `json:"description"`
	Multiplier  float64 `json:"multiplier" validate:"gte=0"`
}

// SpendRequest is the body of POST /coins/spend.
type SpendRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Kind        string `json:"kind" validate:"required"`
	Description string `json:"description"`
}

// Routes registers HTTP routes for coin ledger operations.
//
// Routes:
//   - GET  /coins/balance      : Current balance.
//   - GET  /coins/stats        : Balance plus lifetime and daily counters.
//   - GET  /coins/transactions : Ledger history, filterable by kind.
//   - GET  /coins/daily        : Earned/spent/net for today.
//   - GET  /coins/audit        : Reconcile balance against the ledger fold.
//   - POST /coins/earn         : Credit coins.
//   - POST /coins/spend        : Debit coins.
func Routes(app *fiber.App, coinsSvc *ledgersvc.Service) {
	app.Get("/coins/balance", middleware.UserRequired(), GetBalance(coinsSvc))
	app.Get("/coins/stats", middleware.UserRequired(), GetStats(coinsSvc))
	app.Get("/coins/transactions", middleware.UserRequired(), GetTransactions(coinsSvc))
	app.Get("/coins/daily", middleware.UserRequired(), GetDaily(coinsSvc))
	app.Get("/coins/audit", middleware.UserRequired(), GetAudit(coinsSvc))
	app.Post("/coins/earn", middleware.UserRequired(), Earn(coinsSvc))
	app.Post("/coins/spend", middleware.UserRequired(), Spend(coinsSvc))
}

// GetBalance returns a Fiber handler for the current coin balance.
func GetBalance(coinsSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		balance, err := coinsSvc.Balance(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance retrieved",
			fiber.Map{"balance": balance})
	}
}

// GetStats returns a Fiber handler for the coin summary.
func GetStats(coinsSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		stats, err := coinsSvc.Stats(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get coin stats", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Coin stats retrieved", stats)
	}
}

// GetTransactions returns a Fiber handler for the ledger history. Supports
// kind, limit and offset query parameters.
func GetTransactions(coinsSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}

		var f ledger.Filter
		if raw := c.Query("kind"); raw != "" {
			kind := ledger.Kind(raw)
			if !kind.Valid() {
				return common.ProblemDetailsJSON(c, "Invalid kind", nil, "unknown transaction kind: "+raw)
			}
			f.Kind = &kind
		}
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		offset, _ := strconv.Atoi(c.Query("offset", "0"))

		entries, err := coinsSvc.History(c.Context(), userID, f, limit, offset)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions retrieved", entries)
	}
}

// GetDaily returns a Fiber handler for today's coin movement.
func GetDaily(coinsSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		summary, err := coinsSvc.Daily(c.Context(), userID, time.Now())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get daily summary", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Daily summary retrieved", summary)
	}
}

// GetAudit returns a Fiber handler for the balance reconciliation check.
func GetAudit(coinsSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		report, err := coinsSvc.Audit(c.Context(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to audit ledger", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Audit completed", report)
	}
}

// Earn returns a Fiber handler for crediting coins.
func Earn(coinsSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		input, err := common.BindAndValidate[EarnRequest](c)
		if input == nil {
			return err // error response already written
		}
		kind := ledger.Kind(input.Kind)
		if !kind.Valid() {
			return common.ProblemDetailsJSON(c, "Invalid kind", nil, "unknown transaction kind: "+input.Kind)
		}
		entry, err := coinsSvc.Credit(c.Context(), userID, input.Amount, kind, ledgersvc.CreditOptions{
			Description: input.Description,
			Multiplier:  input.Multiplier,
		})
		if err != nil {
			log.Errorf("Failed to credit coins: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to credit coins", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Coins credited", entry)
	}
}

// Spend returns a Fiber handler for debiting coins.
func Spend(coinsSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context")
		}
		input, err := common.BindAndValidate[SpendRequest](c)
		if input == nil {
			return err // error response already written
		}
		kind := ledger.Kind(input.Kind)
		if !kind.Valid() {
			return common.ProblemDetailsJSON(c, "Invalid kind", nil, "unknown transaction kind: "+input.Kind)
		}
		entry, err := coinsSvc.Debit(c.Context(), userID, input.Amount, kind, ledgersvc.DebitOptions{
			Description: input.Description,
		})
		if err != nil {
			log.Errorf("Failed to debit coins: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to debit coins", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Coins debited", entry)
	}
}
