// Package middleware provides Fiber middleware for the engine's HTTP layer.
package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrMissingUser is returned when a request carries no usable user identity.
var ErrMissingUser = errors.New("missing or invalid user identity")

const userIDKey = "userID"

// UserRequired extracts the caller identity from the X-User-ID header and
// stores it in the request context. Authentication happens upstream; the
// engine only needs the resolved external user id.
func UserRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-User-ID")
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"title":  "Unauthorized",
				"status": fiber.StatusUnauthorized,
				"detail": "X-User-ID header is required",
			})
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"title":  "Unauthorized",
				"status": fiber.StatusUnauthorized,
				"detail": "X-User-ID must be a valid UUID",
			})
		}
		c.Locals(userIDKey, id)
		return c.Next()
	}
}

// CurrentUserID returns the user id stored by UserRequired.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrMissingUser
	}
	return id, nil
}
