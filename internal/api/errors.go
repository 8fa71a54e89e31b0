package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
)

// fail maps the service error taxonomy onto HTTP statuses. Retryable
// transient failures are distinguished from terminal validation failures so
// the client can decide between retry and user correction.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "retryable": false})
	case errors.Is(err, apperr.ErrInvalidParticipants):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error(), "retryable": false})
	case errors.Is(err, apperr.ErrAuth), errors.Is(err, apperr.ErrSessionInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "retryable": false})
	case errors.Is(err, apperr.ErrNotRegistered):
		// no account behind the identifier, same shape as a missing resource
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "retryable": false})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "retryable": false})
	case errors.Is(err, apperr.ErrTransient):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error(), "retryable": true})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error", "retryable": false})
	}
}
