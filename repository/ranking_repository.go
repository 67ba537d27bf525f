package repository

import (
	"context"
	"errors"
	"time"

	"game-session-system/apperrors"
	"game-session-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RankingRepository struct {
	DB *gorm.DB
}

func NewRankingRepository(db *gorm.DB) *RankingRepository {
	return &RankingRepository{DB: db}
}

// EnsureRankingRow inserts a seeded row for userID unless one exists.
// Concurrent callers race on the unique user_id index, never on a read.
func (r *RankingRepository) EnsureRankingRow(ctx context.Context, userID string, seedRating int, tier string) error {
	row := models.RankingRecord{
		ID:     uuid.NewString(),
		UserID: userID,
		Rating: seedRating,
		Tier:   tier,
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (r *RankingRepository) GetRanking(ctx context.Context, userID string) (*models.RankingRecord, error) {
	var rec models.RankingRecord
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ApplyMatchResult locks both rows (in user_id order, so two submissions for
// the same pair cannot deadlock), lets apply mutate them and writes both back
// in the same transaction.
func (r *RankingRepository) ApplyMatchResult(ctx context.Context, userA, userB string, apply func(a, b *models.RankingRecord) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.RankingRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id IN ?", []string{userA, userB}).
			Order("user_id").
			Find(&rows).Error; err != nil {
			return err
		}

		byUser := make(map[string]*models.RankingRecord, len(rows))
		for i := range rows {
			byUser[rows[i].UserID] = &rows[i]
		}
		a, b := byUser[userA], byUser[userB]
		if a == nil || b == nil {
			return apperrors.ErrNotFound
		}

		if err := apply(a, b); err != nil {
			return err
		}

		now := time.Now()
		for _, rec := range []*models.RankingRecord{a, b} {
			if err := tx.Model(&models.RankingRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]interface{}{
					"rating":     rec.Rating,
					"tier":       rec.Tier,
					"wins":       rec.Wins,
					"losses":     rec.Losses,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
