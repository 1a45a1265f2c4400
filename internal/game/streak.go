package game

// StreakTier grades a run of consecutive correct placements for feedback.
type StreakTier int

const (
	StreakNone   StreakTier = iota // 0-1 in a row
	StreakWarm                     // 2-3
	StreakHot                      // 4-5
	StreakOnFire                   // 6+
)

// TierForStreak maps a streak length to its feedback tier.
func TierForStreak(streak int) StreakTier {
	switch {
	case streak >= 6:
		return StreakOnFire
	case streak >= 4:
		return StreakHot
	case streak >= 2:
		return StreakWarm
	default:
		return StreakNone
	}
}

// Glow is the timeline highlight used for the tier: "normal", "bright" or
// "golden".
func (t StreakTier) Glow() string {
	switch t {
	case StreakOnFire, StreakHot:
		return "golden"
	case StreakWarm:
		return "bright"
	default:
		return "normal"
	}
}
