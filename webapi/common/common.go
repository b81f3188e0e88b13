// Package common holds the response envelope, problem-details error
// rendering and request binding shared by all webapi sub-packages.
package common

import (
	"errors"

	"github.com/gamilit/progression/pkg/domain/ledger"
	"github.com/gamilit/progression/pkg/domain/mission"
	"github.com/gamilit/progression/pkg/domain/profile"
	"github.com/gamilit/progression/pkg/domain/rank"
	"github.com/gamilit/progression/pkg/domain/stats"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ProblemDetailsJSON writes an RFC 9457 response. The status comes from the
// domain error mapping; extra detail strings override the error text.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, detail ...string) error {
	status := fiber.StatusBadRequest
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		status = ErrorToStatusCode(err)
		pd.Detail = err.Error()
	}
	if len(detail) > 0 {
		pd.Detail = detail[0]
	}
	pd.Status = status
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, profile.ErrNotFound),
		errors.Is(err, stats.ErrNotFound),
		errors.Is(err, mission.ErrNotFound),
		errors.Is(err, rank.ErrRecordNotFound),
		errors.Is(err, rank.ErrNoCurrentRank):
		return fiber.StatusNotFound
	case errors.Is(err, mission.ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, mission.ErrInvalidTransition),
		errors.Is(err, mission.ErrExpired),
		errors.Is(err, mission.ErrAlreadyClaimed),
		errors.Is(err, mission.ErrNotCompleted),
		errors.Is(err, mission.ErrDuplicateInstance),
		errors.Is(err, rank.ErrNotEligible),
		errors.Is(err, rank.ErrAlreadyMaxRank):
		return fiber.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrAmountNotPositive),
		errors.Is(err, ledger.ErrInvalidMultiplier),
		errors.Is(err, stats.ErrXPNotPositive),
		errors.Is(err, mission.ErrIncrementNotPositive),
		errors.Is(err, mission.ErrObjectiveNotFound):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		ProblemDetailsJSON(c, "Invalid request body", nil, err.Error())
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		ProblemDetailsJSON(c, "Validation failed", nil, err.Error())
		return nil, err
	}
	return &input, nil
}
