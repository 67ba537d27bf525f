package handlers

import (
	"context"

	"game-session-system/middleware"
	"game-session-system/services"

	"github.com/gofiber/fiber/v2"
)

// SweepRunner runs one lifecycle sweep at the current time.
type SweepRunner interface {
	RunOnce(ctx context.Context) (services.LifecycleResult, error)
}

func SetupLifecycleRoutes(router fiber.Router, runner SweepRunner) {
	admin := router.Group("/s/admin", middleware.RequireRole("admin"))

	admin.Post("/lifecycle/sweep", func(c *fiber.Ctx) error {
		result, err := runner.RunOnce(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"auto_completed_count":     result.AutoCompletedCount,
			"archived_completed_count": result.ArchivedCompletedCount,
		})
	})
}
