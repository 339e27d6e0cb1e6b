package services

import "math"

// DefaultPassingThreshold is the score at or above which an attempt passes.
const DefaultPassingThreshold = 70

// CalculateXP awards XP proportional to the score: round(xp * score / 100).
// The formula is not gated on pass/fail, so a sub-threshold attempt still
// earns partial XP.
func CalculateXP(challengeXP, score int) int {
	if challengeXP <= 0 || score <= 0 {
		return 0
	}
	return int(math.Round(float64(challengeXP) * float64(score) / 100.0))
}

// LevelForXP derives the level from cumulative XP:
// level = floor(sqrt(total_xp / 100)) + 1, never below 1.
func LevelForXP(totalXP int) int {
	if totalXP <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(totalXP)/100.0)) + 1
}

// XPToNextLevel is the XP still missing to reach the next level:
// level^2 * 100 is the cumulative XP at which the next level starts.
func XPToNextLevel(totalXP int) int {
	level := LevelForXP(totalXP)
	return level*level*100 - totalXP
}

func IsPassing(score, threshold int) bool {
	return score >= threshold
}
