package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"game-session-system/apperrors"
	"game-session-system/config"
	"game-session-system/metrics"
	"game-session-system/models"
	"game-session-system/ratelimit"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type rankingFixture struct {
	svc       *RankingService
	clock     *clockwork.FakeClock
	sessions  *fakeSessions
	rankings  *fakeRankings
	publisher *recordingPublisher
	metrics   *metrics.RankingMetrics
}

func testRankingConfig() config.RankingConfig {
	return config.RankingConfig{
		Enabled:            true,
		KFactor:            32,
		SeedRating:         1000,
		MinSessionDuration: 10 * time.Minute,
		SubmissionCooldown: 30 * time.Second,
	}
}

func rankedSession(id string, createdAt time.Time) *models.Session {
	return &models.Session{ID: id, Status: models.SessionStatusActive, IsRanked: true, CreatedAt: createdAt}
}

func newRankingFixture(t *testing.T, cfg config.RankingConfig, sessions ...*models.Session) *rankingFixture {
	t.Helper()
	f := &rankingFixture{
		clock:     clockwork.NewFakeClockAt(t0),
		sessions:  newFakeSessions(sessions...),
		rankings:  newFakeRankings(),
		publisher: &recordingPublisher{},
		metrics:   metrics.NewRankingMetrics(prometheus.NewRegistry()),
	}
	f.svc = NewRankingService(RankingServiceDeps{
		Sessions:   f.sessions,
		Rankings:   f.rankings,
		Limiter:    ratelimit.NewMemoryStore(),
		Promotions: f.publisher,
		Metrics:    f.metrics,
		Clock:      f.clock,
	}, cfg)
	return f
}

func submission(sessionID string, outcome Outcome) MatchResult {
	return MatchResult{SessionID: sessionID, SubmitterID: "alice", OpponentID: "bob", Outcome: outcome}
}

func TestSubmitMatchResult_EvenWin(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))

	out, err := f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeWin))
	require.NoError(t, err)

	assert.Equal(t, 1016, out.Submitter.RatingAfter)
	assert.Equal(t, 984, out.Opponent.RatingAfter)
	assert.Equal(t, 16, out.Submitter.Delta)
	assert.Equal(t, -16, out.Opponent.Delta)

	alice, _ := f.rankings.GetRanking(context.Background(), "alice")
	bob, _ := f.rankings.GetRanking(context.Background(), "bob")
	assert.Equal(t, 1016, alice.Rating)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 984, bob.Rating)
	assert.Equal(t, 1, bob.Losses)
	assert.Equal(t, "bronze", bob.Tier)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MatchResultsProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.RatingUpdatesApplied))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.SuspiciousActivity))
}

func TestSubmitMatchResult_DrawKeepsCounters(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))
	f.rankings.seed("alice", 1200)
	f.rankings.seed("bob", 1000)

	out, err := f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeDraw))
	require.NoError(t, err)

	assert.Negative(t, out.Submitter.Delta)
	assert.Equal(t, -out.Submitter.Delta, out.Opponent.Delta)
	assert.Zero(t, out.Submitter.Wins+out.Submitter.Losses)
	assert.Zero(t, out.Opponent.Wins+out.Opponent.Losses)
}

func TestSubmitMatchResult_RatingFloorsAtZero(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))
	f.rankings.seed("alice", 10)
	f.rankings.seed("bob", 10)

	out, err := f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeLoss))
	require.NoError(t, err)

	assert.Equal(t, 0, out.Submitter.RatingAfter)
	assert.Equal(t, -10, out.Submitter.Delta)
	assert.Equal(t, 26, out.Opponent.RatingAfter)
}

func TestSubmitMatchResult_PromotionPublished(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))
	f.rankings.seed("alice", 1190)
	f.rankings.seed("bob", 1190)

	out, err := f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeWin))
	require.NoError(t, err)

	assert.True(t, out.Submitter.Promoted)
	assert.Equal(t, TierSilver, out.Submitter.TierBefore)
	assert.Equal(t, TierGold, out.Submitter.TierAfter)
	assert.False(t, out.Opponent.Promoted)

	require.Len(t, f.publisher.sent, 1)
	promo := f.publisher.sent[0]
	assert.Equal(t, "alice", promo.UserID)
	assert.Equal(t, "s1", promo.SessionID)
	assert.Equal(t, "silver", promo.FromTier)
	assert.Equal(t, "gold", promo.ToTier)
	assert.Equal(t, 1206, promo.Rating)
	assert.Equal(t, t0, promo.PromotedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TierPromotions))
}

func TestSubmitMatchResult_PublisherFailureDoesNotFail(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))
	f.rankings.seed("alice", 1190)
	f.rankings.seed("bob", 1190)
	f.publisher.err = errors.New("broker unavailable")

	_, err := f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeWin))
	require.NoError(t, err)

	alice, _ := f.rankings.GetRanking(context.Background(), "alice")
	assert.Equal(t, 1206, alice.Rating)
}

func TestSubmitMatchResult_RateLimitedPerUserAndSession(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(),
		rankedSession("s1", t0.Add(-time.Hour)),
		rankedSession("s2", t0.Add(-time.Hour)),
	)
	ctx := context.Background()

	_, err := f.svc.SubmitMatchResult(ctx, submission("s1", OutcomeWin))
	require.NoError(t, err)

	_, err = f.svc.SubmitMatchResult(ctx, submission("s1", OutcomeWin))
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SuspiciousActivity))

	_, err = f.svc.SubmitMatchResult(ctx, submission("s2", OutcomeWin))
	assert.NoError(t, err)

	// The opponent reporting the same session is a different key.
	_, err = f.svc.SubmitMatchResult(ctx, MatchResult{SessionID: "s1", SubmitterID: "bob", OpponentID: "alice", Outcome: OutcomeLoss})
	assert.NoError(t, err)

	f.clock.Advance(31 * time.Second)
	_, err = f.svc.SubmitMatchResult(ctx, submission("s1", OutcomeWin))
	assert.NoError(t, err)
}

func TestEnforceMinimumSessionDuration(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig())

	err := f.svc.EnforceMinimumSessionDuration(rankedSession("fresh", t0))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeSessionTooRecent, appErr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SuspiciousActivity))

	assert.NoError(t, f.svc.EnforceMinimumSessionDuration(rankedSession("old", t0.Add(-11*time.Minute))))
	assert.NoError(t, f.svc.EnforceMinimumSessionDuration(rankedSession("edge", t0.Add(-10*time.Minute))))
}

func TestSubmitMatchResult_TooRecentSessionLeavesRatings(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Minute)))

	_, err := f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeWin))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, f.rankings.rows)
}

func TestSubmitMatchResult_SessionGates(t *testing.T) {
	unranked := rankedSession("casual", t0.Add(-time.Hour))
	unranked.IsRanked = false
	scheduled := rankedSession("later", t0.Add(-time.Hour))
	scheduled.Status = models.SessionStatusScheduled

	f := newRankingFixture(t, testRankingConfig(), unranked, scheduled)
	ctx := context.Background()

	_, err := f.svc.SubmitMatchResult(ctx, submission("missing", OutcomeWin))
	assert.True(t, apperrors.IsNotFound(err))

	for _, id := range []string{"casual", "later"} {
		_, err = f.svc.SubmitMatchResult(ctx, submission(id, OutcomeWin))
		require.Error(t, err, id)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeSessionNotEligible, appErr.Code)
	}
}

func TestSubmitMatchResult_InvalidInput(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))
	ctx := context.Background()

	cases := map[string]MatchResult{
		"self match":      {SessionID: "s1", SubmitterID: "alice", OpponentID: "alice", Outcome: OutcomeWin},
		"missing session": {SubmitterID: "alice", OpponentID: "bob", Outcome: OutcomeWin},
		"unknown outcome": {SessionID: "s1", SubmitterID: "alice", OpponentID: "bob", Outcome: "forfeit"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SubmitMatchResult(ctx, in)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestEnsureRankingRow_StorageFailureIsInternal(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))
	f.rankings.ensureErr = errStore

	err := f.svc.EnsureRankingRow(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
	assert.False(t, apperrors.IsNotFound(err))
	assert.ErrorIs(t, err, errStore)

	_, err = f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeWin))
	assert.True(t, apperrors.IsInternal(err))
}

func TestEnsureRankingRow_SeedsOnce(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig())
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureRankingRow(ctx, "carol"))
	f.rankings.rows["carol"].Rating = 1333
	require.NoError(t, f.svc.EnsureRankingRow(ctx, "carol"))

	rec, err := f.rankings.GetRanking(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 1333, rec.Rating)
}

func TestSubmitMatchResult_FailedWriteChangesNothing(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig(), rankedSession("s1", t0.Add(-time.Hour)))
	f.rankings.seed("alice", 1190)
	f.rankings.seed("bob", 1190)
	f.rankings.applyErr = errStore

	_, err := f.svc.SubmitMatchResult(context.Background(), submission("s1", OutcomeWin))
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))

	alice, _ := f.rankings.GetRanking(context.Background(), "alice")
	bob, _ := f.rankings.GetRanking(context.Background(), "bob")
	assert.Equal(t, 1190, alice.Rating)
	assert.Equal(t, 1190, bob.Rating)
	assert.Zero(t, alice.Wins)
	assert.Empty(t, f.publisher.sent)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.MatchResultsProcessed))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.RatingUpdatesApplied))
}

func TestRankingDisabled(t *testing.T) {
	cfg := testRankingConfig()
	cfg.Enabled = false
	f := newRankingFixture(t, cfg, rankedSession("s1", t0.Add(-time.Hour)))
	f.rankings.seed("alice", 1000)
	ctx := context.Background()

	_, err := f.svc.SubmitMatchResult(ctx, submission("s1", OutcomeWin))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindForbidden, appErr.Kind)
	assert.Equal(t, apperrors.CodeRankingDisabled, appErr.Code)

	_, err = f.svc.GetRanking(ctx, "alice")
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.MatchResultsProcessed))
}

func TestGetRanking(t *testing.T) {
	f := newRankingFixture(t, testRankingConfig())
	f.rankings.seed("alice", 1650)
	f.rankings.rows["alice"].Tier = "stale"
	ctx := context.Background()

	view, err := f.svc.GetRanking(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1650, view.Rating)
	assert.Equal(t, TierDiamond, view.Tier)

	_, err = f.svc.GetRanking(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err))

	f.rankings.getErr = errStore
	_, err = f.svc.GetRanking(ctx, "alice")
	assert.True(t, apperrors.IsInternal(err))
}
