package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrContentUnavailable indicates a level has no questions to sample from.
// A well-formed bank never produces it; Validate catches it at startup.
var ErrContentUnavailable = errors.New("content unavailable")

// Level gates which phrases and questions a learner sees.
type Level string

const (
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists all levels in ascending order.
var Levels = []Level{LevelBasic, LevelIntermediate, LevelAdvanced}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelBasic, LevelIntermediate, LevelAdvanced:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// Rank returns the ordinal of the level (basic = 0). Unknown levels rank -1.
func (l Level) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// Question is a single quiz prompt with its canonical answer.
type Question struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Phrase is an English phrase paired with its Italian translation.
type Phrase struct {
	English string
	Italian string
}

// LevelContent holds everything taught at one level.
type LevelContent struct {
	Phrases   map[string]string `yaml:"phrases" json:"phrases"`
	Questions []Question        `yaml:"questions" json:"questions"`
}

// Bank maps each level to its content. It is read-only after loading.
type Bank struct {
	Levels map[Level]LevelContent `yaml:"levels" json:"levels"`
}

// Validate checks that every level has at least one phrase and one question.
func Validate(b *Bank) error {
	if b == nil {
		return fmt.Errorf("%w: nil bank", ErrContentUnavailable)
	}
	for _, lv := range Levels {
		lc, ok := b.Levels[lv]
		if !ok {
			return fmt.Errorf("%w: level %s missing", ErrContentUnavailable, lv)
		}
		if len(lc.Questions) == 0 {
			return fmt.Errorf("%w: level %s has no questions", ErrContentUnavailable, lv)
		}
		if len(lc.Phrases) == 0 {
			return fmt.Errorf("%w: level %s has no phrases", ErrContentUnavailable, lv)
		}
		for i, q := range lc.Questions {
			if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
				return fmt.Errorf("%w: level %s question %d needs a non-blank question and answer", ErrContentUnavailable, lv, i)
			}
		}
	}
	return nil
}

// sortedPhrases returns a level's phrases ordered by English key.
func sortedPhrases(m map[string]string) []Phrase {
	out := make([]Phrase, 0, len(m))
	for en, it := range m {
		out = append(out, Phrase{English: en, Italian: it})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].English < out[j].English })
	return out
}
