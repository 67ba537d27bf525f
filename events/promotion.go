// Package events publishes ranking signals to the rest of the platform.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const TypeTierPromoted = "ranking.tier_promoted"

// TierPromotion is emitted when a participant's tier rises after a match.
type TierPromotion struct {
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	FromTier   string    `json:"from_tier"`
	ToTier     string    `json:"to_tier"`
	Rating     int       `json:"rating"`
	PromotedAt time.Time `json:"promoted_at"`
}

// PromotionPublisher delivers tier promotions. Delivery is best-effort: the
// ranking service logs failures and never fails a submission because of them.
type PromotionPublisher interface {
	PublishTierPromotion(ctx context.Context, p TierPromotion) error
}

// LogPublisher writes promotions to the log only.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishTierPromotion(_ context.Context, promo TierPromotion) error {
	p.log.Info("tier promotion",
		zap.String("user_id", promo.UserID),
		zap.String("session_id", promo.SessionID),
		zap.String("from_tier", promo.FromTier),
		zap.String("to_tier", promo.ToTier),
		zap.Int("rating", promo.Rating),
	)
	return nil
}
