package models

import "time"

// SessionStatus is the lifecycle state of a scheduled multiplayer session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is created by the session-creation flow; this service only moves it
// from active to completed and stamps ArchivedAt once retention elapses.
type Session struct {
	ID          string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Status      SessionStatus `json:"status" gorm:"type:varchar(16);not null;default:'scheduled';index:idx_sessions_status"`
	IsRanked    bool          `json:"is_ranked" gorm:"not null;default:false"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime;index"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" gorm:"index"`
	ArchivedAt  *time.Time    `json:"archived_at,omitempty" gorm:"index"` // set only once status is completed
}

// IsEligibleForRanking reports whether a match result may be scored against s.
func (s *Session) IsEligibleForRanking() bool {
	if !s.IsRanked {
		return false
	}
	return s.Status == SessionStatusActive || s.Status == SessionStatusCompleted
}
