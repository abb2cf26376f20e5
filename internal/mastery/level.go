package mastery

import "github.com/abhisek/parlami/internal/content"

// Score thresholds for promotion.
const (
	IntermediateThreshold = 50
	AdvancedThreshold     = 100
)

// LevelTransition records a level change for display and event logging.
type LevelTransition struct {
	From  content.Level
	To    content.Level
	Score int
}

// thresholdLevel returns the highest level whose threshold score meets.
func thresholdLevel(score int) content.Level {
	switch {
	case score >= AdvancedThreshold:
		return content.LevelAdvanced
	case score >= IntermediateThreshold:
		return content.LevelIntermediate
	default:
		return content.LevelBasic
	}
}

// NextLevel returns the level a learner should be at after reaching score.
// It never returns a level below current.
func NextLevel(current content.Level, score int) content.Level {
	next := thresholdLevel(score)
	if next.Rank() < current.Rank() {
		return current
	}
	return next
}

// Promote returns a LevelTransition when score moves the learner past
// current, nil otherwise.
func Promote(current content.Level, score int) *LevelTransition {
	next := NextLevel(current, score)
	if next == current {
		return nil
	}
	return &LevelTransition{From: current, To: next, Score: score}
}
