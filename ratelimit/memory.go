package ratelimit

import (
	"context"
	"sync"
	"time"
)

const pruneEvery = 1024

// MemoryStore keeps keys in process memory. It is safe for concurrent use
// inside one process but gives no protection across instances; use RedisStore
// when more than one replica serves submissions.
type MemoryStore struct {
	mu      sync.Mutex
	expires map[SubmissionKey]time.Time
	inserts int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{expires: make(map[SubmissionKey]time.Time)}
}

func (m *MemoryStore) Acquire(_ context.Context, key SubmissionKey, now time.Time, cooldown time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.expires[key]; ok && now.Before(exp) {
		return false, nil
	}

	m.expires[key] = now.Add(cooldown)
	m.inserts++
	if m.inserts%pruneEvery == 0 {
		m.pruneLocked(now)
	}
	return true, nil
}

// Prune drops every entry whose cooldown has elapsed at now.
func (m *MemoryStore) Prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(now)
}

func (m *MemoryStore) pruneLocked(now time.Time) {
	for k, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, k)
		}
	}
}

// Len reports the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expires)
}

// Reset forgets every key.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires = make(map[SubmissionKey]time.Time)
	m.inserts = 0
}
