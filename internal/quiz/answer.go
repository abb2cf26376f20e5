package quiz

import "strings"

// PointsPerCorrect is the score awarded for each correct quiz answer.
const PointsPerCorrect = 10

// Result is the outcome of checking one answer.
type Result struct {
	Correct bool
	Delta   int
}

// Evaluate compares a learner's answer against the expected answer.
//
// Normalization rules:
//   - Surrounding whitespace is trimmed
//   - Comparison is case-insensitive
//
// There is no partial credit or fuzzy matching. An empty submission is
// never correct.
func Evaluate(submitted, expected string) Result {
	s := normalize(submitted)
	if s == "" {
		return Result{}
	}
	if s != normalize(expected) {
		return Result{}
	}
	return Result{Correct: true, Delta: PointsPerCorrect}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
