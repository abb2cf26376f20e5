package mastery

import (
	"testing"

	"github.com/abhisek/parlami/internal/content"
)

func TestNextLevel_FromBasic(t *testing.T) {
	tests := []struct {
		score int
		want  content.Level
	}{
		{0, content.LevelBasic},
		{10, content.LevelBasic},
		{49, content.LevelBasic},
		{50, content.LevelIntermediate},
		{55, content.LevelIntermediate},
		{99, content.LevelIntermediate},
		{100, content.LevelAdvanced},
		{250, content.LevelAdvanced},
	}

	for _, tc := range tests {
		got := NextLevel(content.LevelBasic, tc.score)
		if got != tc.want {
			t.Errorf("NextLevel(basic, %d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestNextLevel_NeverLowers(t *testing.T) {
	if got := NextLevel(content.LevelAdvanced, 0); got != content.LevelAdvanced {
		t.Errorf("NextLevel(advanced, 0) = %s, want advanced", got)
	}
	if got := NextLevel(content.LevelIntermediate, 20); got != content.LevelIntermediate {
		t.Errorf("NextLevel(intermediate, 20) = %s, want intermediate", got)
	}
}

func TestNextLevel_MonotonicOverScoreSequence(t *testing.T) {
	level := content.LevelBasic
	for score := 0; score <= 200; score += 10 {
		next := NextLevel(level, score)
		if next.Rank() < level.Rank() {
			t.Fatalf("level decreased from %s to %s at score %d", level, next, score)
		}
		level = next
	}
	if level != content.LevelAdvanced {
		t.Errorf("final level = %s, want advanced", level)
	}
}

func TestPromote(t *testing.T) {
	tr := Promote(content.LevelBasic, 55)
	if tr == nil {
		t.Fatal("expected a transition at score 55")
	}
	if tr.From != content.LevelBasic || tr.To != content.LevelIntermediate {
		t.Errorf("transition = %s -> %s, want basic -> intermediate", tr.From, tr.To)
	}
	if tr.Score != 55 {
		t.Errorf("Score = %d, want 55", tr.Score)
	}

	if tr := Promote(content.LevelIntermediate, 60); tr != nil {
		t.Errorf("unexpected transition %+v", tr)
	}
	if tr := Promote(content.LevelBasic, 45); tr != nil {
		t.Errorf("unexpected transition %+v", tr)
	}
}
