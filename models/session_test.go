package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsEligibleForRanking(t *testing.T) {
	tests := []struct {
		name   string
		ranked bool
		status SessionStatus
		want   bool
	}{
		{"ranked active", true, SessionStatusActive, true},
		{"ranked completed", true, SessionStatusCompleted, true},
		{"ranked scheduled", true, SessionStatusScheduled, false},
		{"ranked cancelled", true, SessionStatusCancelled, false},
		{"casual active", false, SessionStatusActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{IsRanked: tt.ranked, Status: tt.status}
			assert.Equal(t, tt.want, s.IsEligibleForRanking())
		})
	}
}
