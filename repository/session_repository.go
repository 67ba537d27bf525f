// Package repository holds the gorm-backed stores used by the services.
package repository

import (
	"context"
	"errors"
	"time"

	"game-session-system/apperrors"
	"game-session-system/models"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindStaleActiveSessionIDs returns active sessions whose start time, or
// creation time when they never started, is before cutoff. Oldest first.
func (r *SessionRepository) FindStaleActiveSessionIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("status = ?", models.SessionStatusActive).
		Where("((started_at IS NOT NULL AND started_at < ?) OR (started_at IS NULL AND created_at < ?))", cutoff, cutoff).
		Order("created_at, id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// CompleteSessions moves the given sessions to completed. Rows that left the
// active state since selection are skipped by the status guard.
func (r *SessionRepository) CompleteSessions(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("id IN ? AND status = ?", ids, models.SessionStatusActive).
		Updates(map[string]interface{}{
			"status":       models.SessionStatusCompleted,
			"completed_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *SessionRepository) FindRetiredCompletedSessionIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("status = ? AND archived_at IS NULL AND completed_at < ?", models.SessionStatusCompleted, cutoff).
		Order("completed_at, id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ArchiveSessions stamps archived_at; status is left as completed.
func (r *SessionRepository) ArchiveSessions(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("id IN ? AND status = ? AND archived_at IS NULL", ids, models.SessionStatusCompleted).
		Update("archived_at", now)
	return res.RowsAffected, res.Error
}
