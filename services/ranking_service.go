package services

import (
	"context"
	"strings"

	"game-session-system/apperrors"
	"game-session-system/config"
	"game-session-system/events"
	"game-session-system/logger"
	"game-session-system/metrics"
	"game-session-system/models"
	"game-session-system/ratelimit"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// MatchResult is a ranked result reported by one participant.
type MatchResult struct {
	SessionID   string
	SubmitterID string
	OpponentID  string
	Outcome     Outcome
}

// ParticipantResult is one side of an applied rating update.
type ParticipantResult struct {
	UserID       string `json:"user_id"`
	RatingBefore int    `json:"rating_before"`
	RatingAfter  int    `json:"rating_after"`
	Delta        int    `json:"delta"`
	TierBefore   Tier   `json:"tier_before"`
	TierAfter    Tier   `json:"tier_after"`
	Promoted     bool   `json:"promoted"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// MatchOutcome is returned by SubmitMatchResult once both rows are persisted.
type MatchOutcome struct {
	SessionID string            `json:"session_id"`
	Outcome   Outcome           `json:"outcome"`
	Submitter ParticipantResult `json:"submitter"`
	Opponent  ParticipantResult `json:"opponent"`
}

// RankingView is the read model of a ranking row.
type RankingView struct {
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
	Tier   Tier   `json:"tier"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// RankingServiceDeps bundles the collaborators of RankingService.
type RankingServiceDeps struct {
	Sessions   SessionReader
	Rankings   RankingStore
	Limiter    ratelimit.Store
	Promotions events.PromotionPublisher
	Metrics    *metrics.RankingMetrics
	Clock      clockwork.Clock
	Log        *zap.Logger
}

// RankingService gates and applies rating changes for ranked match results.
type RankingService struct {
	sessions   SessionReader
	rankings   RankingStore
	limiter    ratelimit.Store
	promotions events.PromotionPublisher
	metrics    *metrics.RankingMetrics
	clock      clockwork.Clock
	log        *zap.Logger
	cfg        config.RankingConfig
}

func NewRankingService(deps RankingServiceDeps, cfg config.RankingConfig) *RankingService {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &RankingService{
		sessions:   deps.Sessions,
		rankings:   deps.Rankings,
		limiter:    deps.Limiter,
		promotions: deps.Promotions,
		metrics:    deps.Metrics,
		clock:      deps.Clock,
		log:        deps.Log.Named("ranking"),
		cfg:        cfg,
	}
}

// Enabled reports the ranking feature flag.
func (s *RankingService) Enabled() bool { return s.cfg.Enabled }

// EnforceSubmissionRateLimit records an attempt for (userID, sessionID) or
// fails with a RateLimit error when one was recorded within the cooldown.
func (s *RankingService) EnforceSubmissionRateLimit(ctx context.Context, userID, sessionID string) error {
	key := ratelimit.SubmissionKey{UserID: userID, SessionID: sessionID}
	ok, err := s.limiter.Acquire(ctx, key, s.clock.Now(), s.cfg.SubmissionCooldown)
	if err != nil {
		return s.internal(apperrors.Internal(apperrors.CodeRateLimitFailed, "failed to check submission rate limit", err).
			With("user_id", userID).With("session_id", sessionID))
	}
	if !ok {
		s.suspicious()
		s.log.Warn("submission rate limited", zap.String("user_id", userID), zap.String("session_id", sessionID))
		return apperrors.RateLimit(apperrors.CodeSubmissionLimited, "a result for this session was submitted too recently").
			With("user_id", userID).With("session_id", sessionID)
	}
	return nil
}

// EnsureRankingRow creates the user's ranking row with the seed rating if it
// does not exist yet. A storage failure is an Internal error, never NotFound.
func (s *RankingService) EnsureRankingRow(ctx context.Context, userID string) error {
	seedTier := GetTierFromRating(s.cfg.SeedRating)
	if err := s.rankings.EnsureRankingRow(ctx, userID, s.cfg.SeedRating, seedTier.String()); err != nil {
		return s.internal(apperrors.Internal(apperrors.CodeRankingStoreFailed, "failed to ensure ranking row", err).
			With("user_id", userID))
	}
	return nil
}

// EnforceMinimumSessionDuration rejects sessions created less than the
// configured minimum duration ago.
func (s *RankingService) EnforceMinimumSessionDuration(session *models.Session) error {
	age := s.clock.Now().Sub(session.CreatedAt)
	if age < s.cfg.MinSessionDuration {
		s.suspicious()
		s.log.Warn("session too recent for ranked result",
			zap.String("session_id", session.ID),
			zap.Duration("age", age),
			zap.Duration("minimum", s.cfg.MinSessionDuration),
		)
		return apperrors.Validation(apperrors.CodeSessionTooRecent, "session has not run long enough to submit a result").
			With("session_id", session.ID)
	}
	return nil
}

// SubmitMatchResult runs the gates in order (rate limit, session eligibility
// and minimum duration), ensures both ranking rows, then applies and
// persists the rating update for both participants in one transaction.
func (s *RankingService) SubmitMatchResult(ctx context.Context, in MatchResult) (*MatchOutcome, error) {
	if !s.cfg.Enabled {
		return nil, rankingDisabled()
	}
	score, err := validateMatchResult(in)
	if err != nil {
		return nil, err
	}

	if err := s.EnforceSubmissionRateLimit(ctx, in.SubmitterID, in.SessionID); err != nil {
		return nil, err
	}

	session, err := s.loadEligibleSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.EnforceMinimumSessionDuration(session); err != nil {
		return nil, err
	}

	for _, userID := range []string{in.SubmitterID, in.OpponentID} {
		if err := s.EnsureRankingRow(ctx, userID); err != nil {
			return nil, err
		}
	}

	outcome := &MatchOutcome{SessionID: in.SessionID, Outcome: in.Outcome}
	err = s.rankings.ApplyMatchResult(ctx, in.SubmitterID, in.OpponentID, func(a, b *models.RankingRecord) error {
		outcome.Submitter, outcome.Opponent = s.applyRating(a, b, in.Outcome, score)
		return nil
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound(apperrors.CodeRankingNotFound, "ranking row missing", err).
				With("session_id", in.SessionID)
		}
		return nil, s.internal(apperrors.Internal(apperrors.CodeRankingStoreFailed, "failed to persist match result", err).
			With("user_id", in.SubmitterID).With("session_id", in.SessionID))
	}

	if s.metrics != nil {
		s.metrics.MatchResultsProcessed.Inc()
		s.metrics.RatingUpdatesApplied.Add(2)
	}

	for _, p := range []ParticipantResult{outcome.Submitter, outcome.Opponent} {
		if p.Promoted {
			s.emitPromotion(ctx, in.SessionID, p)
		}
	}

	s.log.Info("match result applied",
		zap.String("session_id", in.SessionID),
		zap.String("submitter_id", in.SubmitterID),
		zap.String("opponent_id", in.OpponentID),
		zap.String("outcome", string(in.Outcome)),
		zap.Int("delta", outcome.Submitter.Delta),
	)
	return outcome, nil
}

// GetRanking returns the user's rating with its tier recomputed on read.
func (s *RankingService) GetRanking(ctx context.Context, userID string) (*RankingView, error) {
	if !s.cfg.Enabled {
		return nil, rankingDisabled()
	}
	rec, err := s.rankings.GetRanking(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound(apperrors.CodeRankingNotFound, "no ranking for this user", err).
				With("user_id", userID)
		}
		return nil, s.internal(apperrors.Internal(apperrors.CodeRankingStoreFailed, "failed to load ranking", err).
			With("user_id", userID))
	}
	return &RankingView{
		UserID: rec.UserID,
		Rating: rec.Rating,
		Tier:   GetTierFromRating(rec.Rating),
		Wins:   rec.Wins,
		Losses: rec.Losses,
	}, nil
}

func (s *RankingService) loadEligibleSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound(apperrors.CodeSessionNotFound, "session not found", err).
				With("session_id", sessionID)
		}
		return nil, s.internal(apperrors.Internal(apperrors.CodeRankingStoreFailed, "failed to load session", err).
			With("session_id", sessionID))
	}
	if !session.IsEligibleForRanking() {
		return nil, apperrors.Validation(apperrors.CodeSessionNotEligible, "session is not a ranked active or completed session").
			With("session_id", sessionID).With("status", string(session.Status))
	}
	return session, nil
}

// applyRating mutates both rows in place and reports the change per side.
func (s *RankingService) applyRating(a, b *models.RankingRecord, outcome Outcome, score float64) (ParticipantResult, ParticipantResult) {
	deltaA, deltaB := RatingDelta(a.Rating, b.Rating, score, s.cfg.KFactor)

	switch outcome {
	case OutcomeWin:
		a.Wins++
		b.Losses++
	case OutcomeLoss:
		a.Losses++
		b.Wins++
	}

	return updateRecord(a, deltaA), updateRecord(b, deltaB)
}

func updateRecord(rec *models.RankingRecord, delta int) ParticipantResult {
	before := rec.Rating
	tierBefore := GetTierFromRating(before)

	rec.Rating = applyDelta(before, delta)
	tierAfter := GetTierFromRating(rec.Rating)
	rec.Tier = tierAfter.String()

	return ParticipantResult{
		UserID:       rec.UserID,
		RatingBefore: before,
		RatingAfter:  rec.Rating,
		Delta:        rec.Rating - before,
		TierBefore:   tierBefore,
		TierAfter:    tierAfter,
		Promoted:     tierAfter.Rank() > tierBefore.Rank(),
		Wins:         rec.Wins,
		Losses:       rec.Losses,
	}
}

func (s *RankingService) emitPromotion(ctx context.Context, sessionID string, p ParticipantResult) {
	if s.metrics != nil {
		s.metrics.TierPromotions.Inc()
	}
	if s.promotions == nil {
		return
	}
	promo := events.TierPromotion{
		UserID:     p.UserID,
		SessionID:  sessionID,
		FromTier:   p.TierBefore.String(),
		ToTier:     p.TierAfter.String(),
		Rating:     p.RatingAfter,
		PromotedAt: s.clock.Now(),
	}
	if err := s.promotions.PublishTierPromotion(ctx, promo); err != nil {
		s.log.Warn("tier promotion not delivered", zap.String("user_id", p.UserID), zap.Error(err))
	}
}

func (s *RankingService) suspicious() {
	if s.metrics != nil {
		s.metrics.SuspiciousActivity.Inc()
	}
}

// internal logs an Internal error with its context before it is returned.
func (s *RankingService) internal(err *apperrors.AppError) error {
	s.log.Error(err.Message, logger.ErrorFields(err.Err, err.Fields)...)
	return err
}

func rankingDisabled() error {
	return apperrors.Forbidden(apperrors.CodeRankingDisabled, "ranked play is disabled")
}

func validateMatchResult(in MatchResult) (float64, error) {
	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(in.SubmitterID) == "" || strings.TrimSpace(in.OpponentID) == "" {
		return 0, apperrors.Validation(apperrors.CodeInvalidSubmission, "session, submitter and opponent are required")
	}
	if in.SubmitterID == in.OpponentID {
		return 0, apperrors.Validation(apperrors.CodeInvalidSubmission, "cannot submit a result against yourself").
			With("user_id", in.SubmitterID)
	}
	score, ok := in.Outcome.Score()
	if !ok {
		return 0, apperrors.Validation(apperrors.CodeInvalidSubmission, "outcome must be win, loss or draw")
	}
	return score, nil
}
