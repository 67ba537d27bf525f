package services

import "math"

// Tier is a named band of rating values.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
	TierMaster   Tier = "master"
)

// TierThresholds lists each tier with the minimum rating that reaches it,
// ascending. The first entry covers every rating below the second.
var TierThresholds = []struct {
	Tier      Tier
	MinRating int
}{
	{TierBronze, math.MinInt},
	{TierSilver, 1000},
	{TierGold, 1200},
	{TierPlatinum, 1400},
	{TierDiamond, 1600},
	{TierMaster, 1800},
}

// GetTierFromRating maps a rating onto its tier.
func GetTierFromRating(rating int) Tier {
	tier := TierThresholds[0].Tier
	for _, t := range TierThresholds[1:] {
		if rating < t.MinRating {
			break
		}
		tier = t.Tier
	}
	return tier
}

// Rank is the tier's position in TierThresholds (bronze = 0); unknown tiers
// rank -1.
func (t Tier) Rank() int {
	for i, th := range TierThresholds {
		if th.Tier == t {
			return i
		}
	}
	return -1
}

func (t Tier) String() string { return string(t) }
