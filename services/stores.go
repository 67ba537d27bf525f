package services

import (
	"context"
	"time"

	"game-session-system/models"
)

// SessionReader loads a single session row.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
}

// RankingStore persists ranking rows. ApplyMatchResult must lock both rows,
// let apply mutate them, and write both back atomically: either both updates
// land or neither does.
type RankingStore interface {
	EnsureRankingRow(ctx context.Context, userID string, seedRating int, tier string) error
	GetRanking(ctx context.Context, userID string) (*models.RankingRecord, error)
	ApplyMatchResult(ctx context.Context, userA, userB string, apply func(a, b *models.RankingRecord) error) error
}

// LifecycleStore selects and updates sessions by explicit id sets.
type LifecycleStore interface {
	FindStaleActiveSessionIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	CompleteSessions(ctx context.Context, ids []string, now time.Time) (int64, error)
	FindRetiredCompletedSessionIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	ArchiveSessions(ctx context.Context, ids []string, now time.Time) (int64, error)
}
