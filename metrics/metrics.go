// Package metrics holds the prometheus counters incremented by the ranking
// submission path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RankingMetrics groups the four ranking counters. They are only written by
// this service; the collector scrapes them from /metrics.
type RankingMetrics struct {
	SuspiciousActivity    prometheus.Counter
	MatchResultsProcessed prometheus.Counter
	RatingUpdatesApplied  prometheus.Counter
	TierPromotions        prometheus.Counter
}

// NewRankingMetrics registers the counters on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewRankingMetrics(reg prometheus.Registerer) *RankingMetrics {
	factory := promauto.With(reg)
	return &RankingMetrics{
		SuspiciousActivity: factory.NewCounter(prometheus.CounterOpts{
			Name: "ranking_suspicious_activity_total",
			Help: "Submissions rejected by the rate-limit or minimum-duration gate",
		}),
		MatchResultsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ranking_match_results_processed_total",
			Help: "Match results accepted and persisted",
		}),
		RatingUpdatesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "ranking_rating_updates_applied_total",
			Help: "Per-participant rating updates persisted",
		}),
		TierPromotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ranking_tier_promotions_total",
			Help: "Participants promoted to a higher tier",
		}),
	}
}
