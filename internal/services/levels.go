package services

import "math"

const (
	// DefaultDailyXP is granted for one fully-completed day.
	DefaultDailyXP = 50
	// DefaultLevelStepXP is the XP-per-level-squared-step constant: the
	// XP required to reach level n is step * (n-1)^2.
	DefaultLevelStepXP = 100
)

// LevelForXP derives the level from total XP alone.
func LevelForXP(totalXP, stepXP int) int {
	if stepXP <= 0 {
		stepXP = DefaultLevelStepXP
	}
	if totalXP < 0 {
		totalXP = 0
	}
	return int(math.Floor(math.Sqrt(float64(totalXP)/float64(stepXP)))) + 1
}

// CurrentLevelXP is the XP accumulated past the current level's floor.
func CurrentLevelXP(totalXP, stepXP int) int {
	if stepXP <= 0 {
		stepXP = DefaultLevelStepXP
	}
	if totalXP < 0 {
		totalXP = 0
	}
	level := LevelForXP(totalXP, stepXP)
	return totalXP - stepXP*(level-1)*(level-1)
}
