// Package ratelimit guards ranked submissions: at most one accepted attempt
// per (user, session) pair within a cooldown window.
package ratelimit

import (
	"context"
	"time"
)

// SubmissionKey is always the full pair. A user submitting for another
// session, or another user submitting for the same session, is never blocked.
type SubmissionKey struct {
	UserID    string
	SessionID string
}

func (k SubmissionKey) String() string {
	return k.UserID + ":" + k.SessionID
}

// Store is an atomic check-and-set over submission keys. Acquire returns false
// without recording anything when key was acquired less than cooldown ago;
// otherwise it records now and returns true.
type Store interface {
	Acquire(ctx context.Context, key SubmissionKey, now time.Time, cooldown time.Duration) (bool, error)
}
