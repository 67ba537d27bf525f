package services

import (
	"context"
	"time"

	"game-session-system/apperrors"
	"game-session-system/config"
	"game-session-system/logger"

	"go.uber.org/zap"
)

const (
	defaultLifecycleBatchSize = 500

	PhaseCompleteStale  = "complete-stale"
	PhaseArchiveRetired = "archive-retired"
)

// PhaseResult is what one sweep phase actually updated.
type PhaseResult struct {
	IDs   []string
	Count int
}

// LifecycleResult reports rows updated by a full sweep.
type LifecycleResult struct {
	AutoCompletedCount     int      `json:"auto_completed_count"`
	ArchivedCompletedCount int      `json:"archived_completed_count"`
	CompletedIDs           []string `json:"completed_ids"`
	ArchivedIDs            []string `json:"archived_ids"`
}

// SessionLifecycleService auto-completes abandoned active sessions and marks
// long-finished ones as archived.
type SessionLifecycleService struct {
	store             LifecycleStore
	autoCompleteAfter time.Duration
	retention         time.Duration
	batchSize         int
	log               *zap.Logger
}

func NewSessionLifecycleService(store LifecycleStore, cfg config.LifecycleConfig, log *zap.Logger) *SessionLifecycleService {
	if log == nil {
		log = zap.NewNop()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultLifecycleBatchSize
	}
	return &SessionLifecycleService{
		store:             store,
		autoCompleteAfter: time.Duration(cfg.AutoCompleteAfterHours) * time.Hour,
		retention:         time.Duration(cfg.CompletedRetentionHours) * time.Hour,
		batchSize:         batch,
		log:               log.Named("lifecycle"),
	}
}

// ProcessLifecycle runs both phases in order. A phase-1 failure returns a
// zero result and skips phase 2; a phase-2 failure keeps phase 1's counts,
// which are already committed.
func (s *SessionLifecycleService) ProcessLifecycle(ctx context.Context, now time.Time) (LifecycleResult, error) {
	completed, err := s.CompleteStaleSessions(ctx, now)
	if err != nil {
		return LifecycleResult{}, err
	}

	result := LifecycleResult{
		AutoCompletedCount: completed.Count,
		CompletedIDs:       completed.IDs,
	}

	archived, err := s.ArchiveRetiredSessions(ctx, now)
	if err != nil {
		return result, err
	}
	result.ArchivedCompletedCount = archived.Count
	result.ArchivedIDs = archived.IDs

	if result.AutoCompletedCount > 0 || result.ArchivedCompletedCount > 0 {
		s.log.Info("lifecycle sweep finished",
			zap.Int("auto_completed", result.AutoCompletedCount),
			zap.Int("archived", result.ArchivedCompletedCount),
			zap.Time("now", now),
		)
	}
	return result, nil
}

// CompleteStaleSessions moves active sessions whose start (or creation, when
// never started) is older than the auto-complete threshold to completed.
func (s *SessionLifecycleService) CompleteStaleSessions(ctx context.Context, now time.Time) (PhaseResult, error) {
	cutoff := now.Add(-s.autoCompleteAfter)

	ids, err := s.store.FindStaleActiveSessionIDs(ctx, cutoff, s.batchSize)
	if err != nil {
		return PhaseResult{}, s.phaseError(PhaseCompleteStale, "failed to select stale active sessions", err)
	}
	if len(ids) == 0 {
		return PhaseResult{}, nil
	}

	n, err := s.store.CompleteSessions(ctx, ids, now)
	if err != nil {
		return PhaseResult{}, s.phaseError(PhaseCompleteStale, "failed to complete stale sessions", err)
	}
	return PhaseResult{IDs: ids, Count: int(n)}, nil
}

// ArchiveRetiredSessions stamps archived_at on completed sessions past the
// retention window. Status stays completed.
func (s *SessionLifecycleService) ArchiveRetiredSessions(ctx context.Context, now time.Time) (PhaseResult, error) {
	cutoff := now.Add(-s.retention)

	ids, err := s.store.FindRetiredCompletedSessionIDs(ctx, cutoff, s.batchSize)
	if err != nil {
		return PhaseResult{}, s.phaseError(PhaseArchiveRetired, "failed to select retired sessions", err)
	}
	if len(ids) == 0 {
		return PhaseResult{}, nil
	}

	n, err := s.store.ArchiveSessions(ctx, ids, now)
	if err != nil {
		return PhaseResult{}, s.phaseError(PhaseArchiveRetired, "failed to archive retired sessions", err)
	}
	return PhaseResult{IDs: ids, Count: int(n)}, nil
}

func (s *SessionLifecycleService) phaseError(phase, msg string, err error) error {
	appErr := apperrors.Internal(apperrors.CodeLifecycleFailed, msg, err).With("phase", phase)
	s.log.Error(msg, logger.ErrorFields(err, appErr.Fields)...)
	return appErr
}
