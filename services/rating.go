package services

import "math"

// Outcome is a match result from the submitter's point of view.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Score is the observed result used by the rating update (1, 0.5, 0).
func (o Outcome) Score() (float64, bool) {
	switch o {
	case OutcomeWin:
		return 1, true
	case OutcomeLoss:
		return 0, true
	case OutcomeDraw:
		return 0.5, true
	}
	return 0, false
}

// ExpectedScore is the paired-comparison expectation for a player rated
// rating against an opponent rated opponent: 1 / (1 + 10^((opp-r)/400)).
func ExpectedScore(rating, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
}

// RatingDelta returns the rounded change for the player and the opponent.
// The pair always sums to zero.
func RatingDelta(rating, opponent int, score, kFactor float64) (int, int) {
	d := int(math.Round(kFactor * (score - ExpectedScore(rating, opponent))))
	return d, -d
}

func applyDelta(rating, delta int) int {
	if rating+delta < 0 {
		return 0
	}
	return rating + delta
}
