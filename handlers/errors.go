package handlers

import (
	"game-session-system/apperrors"

	"github.com/gofiber/fiber/v2"
)

// respondError renders err as {error, code}. Wrapped storage errors are never
// exposed; foreign errors become a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	if appErr, ok := apperrors.As(err); ok {
		return c.Status(appErr.StatusCode).JSON(fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
		"code":  apperrors.CodeInternal,
	})
}
