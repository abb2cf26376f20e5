package mastery

import "github.com/abhisek/parlami/internal/content"

// PointsToNext reports the next level above current and how many points are
// still needed to reach it. ok is false at the top level.
func PointsToNext(current content.Level, score int) (next content.Level, remaining int, ok bool) {
	switch current {
	case content.LevelBasic:
		next, remaining = content.LevelIntermediate, IntermediateThreshold-score
	case content.LevelIntermediate:
		next, remaining = content.LevelAdvanced, AdvancedThreshold-score
	default:
		return "", 0, false
	}
	if remaining < 0 {
		remaining = 0
	}
	return next, remaining, true
}
