package middleware

import (
	"game-session-system/apperrors"

	"github.com/gofiber/fiber/v2"
)

// RankedFeatureGate short-circuits ranking routes when ranked play is off.
func RankedFeatureGate(enabled func() bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enabled() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "ranked play is disabled",
				"code":  apperrors.CodeRankingDisabled,
			})
		}
		return c.Next()
	}
}
