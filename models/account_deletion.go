package models

import "time"

// AccountDeletion is written by the account service when a user deletes their
// account. The purge routine removes the user's ranking row and stamps PurgedAt.
type AccountDeletion struct {
	UserID      string     `json:"user_id" gorm:"primaryKey"`
	RequestedAt time.Time  `json:"requested_at" gorm:"not null;index"`
	PurgedAt    *time.Time `json:"purged_at,omitempty" gorm:"index"`
}
