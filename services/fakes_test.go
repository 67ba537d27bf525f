package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"game-session-system/apperrors"
	"game-session-system/events"
	"game-session-system/models"
)

var errStore = errors.New("connection reset by peer")

type fakeSessions struct {
	sessions map[string]*models.Session
	err      error
}

func newFakeSessions(sessions ...*models.Session) *fakeSessions {
	f := &fakeSessions{sessions: map[string]*models.Session{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeSessions) GetSession(_ context.Context, id string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type fakeRankings struct {
	mu        sync.Mutex
	rows      map[string]*models.RankingRecord
	ensureErr error
	getErr    error
	applyErr  error
	ensured   []string
}

func newFakeRankings() *fakeRankings {
	return &fakeRankings{rows: map[string]*models.RankingRecord{}}
}

func (f *fakeRankings) seed(userID string, rating int) {
	f.rows[userID] = &models.RankingRecord{UserID: userID, Rating: rating, Tier: GetTierFromRating(rating).String()}
}

func (f *fakeRankings) EnsureRankingRow(_ context.Context, userID string, seedRating int, tier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, userID)
	if _, ok := f.rows[userID]; !ok {
		f.rows[userID] = &models.RankingRecord{UserID: userID, Rating: seedRating, Tier: tier}
	}
	return nil
}

func (f *fakeRankings) GetRanking(_ context.Context, userID string) (*models.RankingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.rows[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// ApplyMatchResult works on copies and writes both back only on success.
func (f *fakeRankings) ApplyMatchResult(_ context.Context, userA, userB string, apply func(a, b *models.RankingRecord) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ra, okA := f.rows[userA]
	rb, okB := f.rows[userB]
	if !okA || !okB {
		return apperrors.ErrNotFound
	}
	a, b := *ra, *rb
	if err := apply(&a, &b); err != nil {
		return err
	}
	if f.applyErr != nil {
		return f.applyErr
	}
	f.rows[userA], f.rows[userB] = &a, &b
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []events.TierPromotion
	err  error
}

func (p *recordingPublisher) PublishTierPromotion(_ context.Context, promo events.TierPromotion) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, promo)
	return p.err
}

// fakeLifecycleStore evaluates the lifecycle predicates over an in-memory
// table and counts update calls.
type fakeLifecycleStore struct {
	sessions map[string]*models.Session

	findActiveErr  error
	findRetiredErr error
	completeErr    error
	archiveErr     error

	completeCalls int
	archiveCalls  int
}

func newFakeLifecycleStore(sessions ...*models.Session) *fakeLifecycleStore {
	f := &fakeLifecycleStore{sessions: map[string]*models.Session{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeLifecycleStore) FindStaleActiveSessionIDs(_ context.Context, cutoff time.Time, limit int) ([]string, error) {
	if f.findActiveErr != nil {
		return nil, f.findActiveErr
	}
	return f.collect(limit, func(s *models.Session) bool {
		if s.Status != models.SessionStatusActive {
			return false
		}
		anchor := s.CreatedAt
		if s.StartedAt != nil {
			anchor = *s.StartedAt
		}
		return anchor.Before(cutoff)
	}), nil
}

func (f *fakeLifecycleStore) FindRetiredCompletedSessionIDs(_ context.Context, cutoff time.Time, limit int) ([]string, error) {
	if f.findRetiredErr != nil {
		return nil, f.findRetiredErr
	}
	return f.collect(limit, func(s *models.Session) bool {
		return s.Status == models.SessionStatusCompleted &&
			s.ArchivedAt == nil &&
			s.CompletedAt != nil &&
			s.CompletedAt.Before(cutoff)
	}), nil
}

func (f *fakeLifecycleStore) CompleteSessions(_ context.Context, ids []string, now time.Time) (int64, error) {
	f.completeCalls++
	if f.completeErr != nil {
		return 0, f.completeErr
	}
	var n int64
	for _, id := range ids {
		s, ok := f.sessions[id]
		if !ok || s.Status != models.SessionStatusActive {
			continue
		}
		at := now
		s.Status = models.SessionStatusCompleted
		s.CompletedAt = &at
		n++
	}
	return n, nil
}

func (f *fakeLifecycleStore) ArchiveSessions(_ context.Context, ids []string, now time.Time) (int64, error) {
	f.archiveCalls++
	if f.archiveErr != nil {
		return 0, f.archiveErr
	}
	var n int64
	for _, id := range ids {
		s, ok := f.sessions[id]
		if !ok || s.Status != models.SessionStatusCompleted || s.ArchivedAt != nil {
			continue
		}
		at := now
		s.ArchivedAt = &at
		n++
	}
	return n, nil
}

func (f *fakeLifecycleStore) collect(limit int, match func(*models.Session) bool) []string {
	var ids []string
	for id, s := range f.sessions {
		if match(s) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
