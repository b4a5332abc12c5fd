// Package progression converts profile activity into XP and XP into levels.
//
// Levels advance in brackets of ten: levels 1-10 cost 100 XP each, 11-20
// cost 200 XP each, 21-30 cost 300 XP each, and so on.
package progression

// XP awarded per unit of each source.
const (
	XPPerRepo     = 100
	XPPerFollower = 50
	XPPerStar     = 10
	XPPerYear     = 500

	// MaxLevel bounds the level search; totals beyond it fall back to level 1.
	MaxLevel = 10000
)

// XPSources are the inputs to the total XP formula.
type XPSources struct {
	Repos          int64 `json:"repos"`
	Followers      int64 `json:"followers"`
	Stars          int64 `json:"stars"`
	Years          int64 `json:"years"`
	AchievementsXP int64 `json:"achievementsXP"`
}

// LevelResult is a total XP value resolved to a level.
type LevelResult struct {
	Level          int64   `json:"level"`
	CurrentLevelXP int64   `json:"currentLevelXP"`
	NextLevelXP    int64   `json:"nextLevelXP"`
	Progress       float64 `json:"progress"`
	TotalXP        int64   `json:"totalXP"`
}

// CalculateXPFromSources returns repos*100 + followers*50 + stars*10 +
// years*500 + achievementsXP. Negative inputs count as zero.
func CalculateXPFromSources(s XPSources) int64 {
	return nonNegative(s.Repos)*XPPerRepo +
		nonNegative(s.Followers)*XPPerFollower +
		nonNegative(s.Stars)*XPPerStar +
		nonNegative(s.Years)*XPPerYear +
		nonNegative(s.AchievementsXP)
}

// XPRequiredForLevel returns the XP needed to advance from level to level+1.
func XPRequiredForLevel(level int64) int64 {
	bracket := (level-1)/10 + 1
	return bracket * 100
}

// TotalXPForLevel returns the cumulative XP needed to reach level from level 1.
func TotalXPForLevel(level int64) int64 {
	var total int64
	for l := int64(1); l < level; l++ {
		total += XPRequiredForLevel(l)
	}
	return total
}

// CalculateLevelFromXP resolves totalXP to a level and the progress within it.
// Negative totals count as zero.
func CalculateLevelFromXP(totalXP int64) LevelResult {
	totalXP = nonNegative(totalXP)

	level := int64(1)
	var consumed int64
	for level <= MaxLevel {
		cost := XPRequiredForLevel(level)
		if consumed+cost > totalXP {
			current := totalXP - consumed
			return LevelResult{
				Level:          level,
				CurrentLevelXP: current,
				NextLevelXP:    cost,
				Progress:       float64(current) / float64(cost) * 100,
				TotalXP:        totalXP,
			}
		}
		consumed += cost
		level++
	}

	return LevelResult{Level: 1, NextLevelXP: 100}
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
