package content

import (
	"fmt"
	"math/rand/v2"
)

// RandSource picks an index in [0, n). *rand.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

// globalRand uses the concurrency-safe top-level math/rand/v2 functions.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Repository answers phrase and quiz lookups against a validated Bank.
type Repository struct {
	bank *Bank
	rnd  RandSource
}

// NewRepository creates a Repository. A nil rnd uses math/rand/v2.
func NewRepository(bank *Bank, rnd RandSource) *Repository {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Repository{bank: bank, rnd: rnd}
}

// Translate looks up an English phrase at the given level. The key must
// match exactly, including case.
func (r *Repository) Translate(level Level, key string) (string, bool) {
	lc, ok := r.bank.Levels[level]
	if !ok {
		return "", false
	}
	it, ok := lc.Phrases[key]
	return it, ok
}

// Phrases returns the phrases for a level sorted by their English text.
func (r *Repository) Phrases(level Level) []Phrase {
	return sortedPhrases(r.bank.Levels[level].Phrases)
}

// SampleQuestion picks a question for the level uniformly at random.
func (r *Repository) SampleQuestion(level Level) (Question, error) {
	qs := r.bank.Levels[level].Questions
	if len(qs) == 0 {
		return Question{}, fmt.Errorf("%w: level %s has no questions", ErrContentUnavailable, level)
	}
	return qs[r.rnd.IntN(len(qs))], nil
}

// Questions returns a copy of the question list for a level.
func (r *Repository) Questions(level Level) []Question {
	qs := r.bank.Levels[level].Questions
	out := make([]Question, len(qs))
	copy(out, qs)
	return out
}
