package models

import "time"

// RankingRecord is a user's ladder standing. One row per user that ever took
// part in a ranked session; created lazily with the seed rating.
type RankingRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;not null"`
	Rating    int       `json:"rating" gorm:"not null;default:1000"`
	Tier      string    `json:"tier" gorm:"type:varchar(16);not null;default:'silver'"` // denormalized, recomputed on write
	Wins      int       `json:"wins" gorm:"not null;default:0"`
	Losses    int       `json:"losses" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RankingRecord) TableName() string { return "rankings" }
