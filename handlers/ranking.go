package handlers

import (
	"context"

	"game-session-system/middleware"
	"game-session-system/services"

	"github.com/gofiber/fiber/v2"
)

// RankingAPI is the part of RankingService the HTTP surface needs.
type RankingAPI interface {
	Enabled() bool
	SubmitMatchResult(ctx context.Context, in services.MatchResult) (*services.MatchOutcome, error)
	GetRanking(ctx context.Context, userID string) (*services.RankingView, error)
}

type submitResultRequest struct {
	OpponentID string           `json:"opponent_id"`
	Outcome    services.Outcome `json:"outcome"`
}

func SetupRankingRoutes(router fiber.Router, ranking RankingAPI) {
	gate := middleware.RankedFeatureGate(ranking.Enabled)

	router.Post("/sessions/:id/results", gate, func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
		}

		var req submitResultRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		outcome, err := ranking.SubmitMatchResult(c.UserContext(), services.MatchResult{
			SessionID:   c.Params("id"),
			SubmitterID: userID,
			OpponentID:  req.OpponentID,
			Outcome:     req.Outcome,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(outcome)
	})

	router.Get("/rankings/me", gate, func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
		}
		view, err := ranking.GetRanking(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	})

	router.Get("/rankings/:user_id", gate, func(c *fiber.Ctx) error {
		view, err := ranking.GetRanking(c.UserContext(), c.Params("user_id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	})
}
