package workers

import (
	"context"
	"time"

	"game-session-system/config"
	"game-session-system/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountPurgeWorker removes ranking rows of users whose account deletion
// request is older than the grace period.
type AccountPurgeWorker struct {
	DB    *gorm.DB
	clock clockwork.Clock
	grace time.Duration
	batch int
	log   *zap.Logger
}

func NewAccountPurgeWorker(db *gorm.DB, cfg config.PurgeConfig, clock clockwork.Clock, log *zap.Logger) *AccountPurgeWorker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 200
	}
	return &AccountPurgeWorker{
		DB:    db,
		clock: clock,
		grace: time.Duration(cfg.GraceHours) * time.Hour,
		batch: batch,
		log:   log.Named("account-purge"),
	}
}

// RunOnce purges one batch and returns how many accounts it handled.
func (w *AccountPurgeWorker) RunOnce(ctx context.Context) (int, error) {
	now := w.clock.Now()
	cutoff := now.Add(-w.grace)

	var userIDs []string
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AccountDeletion{}).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("purged_at IS NULL AND requested_at < ?", cutoff).
			Order("requested_at").
			Limit(w.batch).
			Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}

		if err := tx.Where("user_id IN ?", userIDs).Delete(&models.RankingRecord{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.AccountDeletion{}).
			Where("user_id IN ?", userIDs).
			Update("purged_at", now).Error
	})
	if err != nil {
		w.log.Error("account purge failed", zap.Error(err))
		return 0, err
	}

	if len(userIDs) > 0 {
		w.log.Info("purged deleted accounts", zap.Int("count", len(userIDs)))
	}
	return len(userIDs), nil
}
