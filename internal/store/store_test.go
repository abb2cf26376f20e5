package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/parlami/internal/content"
	"github.com/abhisek/parlami/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"sessions", "llm_request_events", "answer_events", "level_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sess := session.New("u1")
	sess.Score = 30
	if err := s.Sessions().Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Sessions().Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 30 {
		t.Errorf("score = %d, want 30", got.Score)
	}
}

func TestSequence_CountsFromOne(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequence(ctx, s.DB())
	if err != nil {
		t.Fatalf("new sequence: %v", err)
	}

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestSessionStore_GetCreatesDefault(t *testing.T) {
	s := openTestStore(t)
	store := s.Sessions()
	ctx := context.Background()

	got, err := store.Get(ctx, "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Level != content.LevelBasic || got.Score != 0 || got.State != session.StateIdle {
		t.Errorf("default = %+v", got)
	}
	if !got.LastInteraction.IsZero() {
		t.Errorf("last interaction = %v, want zero", got.LastInteraction)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	store := s.Sessions()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	sess := &session.Session{
		UserID:          "42",
		Level:           content.LevelIntermediate,
		Score:           55,
		State:           session.StateQuizActive,
		PendingQuestion: "How do you say 'Thank you' in Italian?",
		PendingAnswer:   "Grazie",
		LastInteraction: now,
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess.Score = 65
	sess.State = session.StateQuizFeedback
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := store.Get(ctx, "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 65 || got.State != session.StateQuizFeedback {
		t.Errorf("got score %d state %s", got.Score, got.State)
	}
	if got.PendingAnswer != "" {
		t.Errorf("pending answer = %q, want cleared outside quiz", got.PendingAnswer)
	}
	if !got.LastInteraction.Equal(now) {
		t.Errorf("last interaction = %v, want %v", got.LastInteraction, now)
	}

	n, _ := store.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSessionStore_CorruptRowRebuilt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.DB().Exec(`INSERT INTO sessions (user_id, level, score, state) VALUES ('bad', 'expert', 10, 'idle')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.Sessions().Get(ctx, "bad")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Level != content.LevelBasic || got.Score != 0 {
		t.Errorf("got level %s score %d, want default", got.Level, got.Score)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	s := openTestStore(t)
	store := s.Sessions()
	ctx := context.Background()

	sess := session.New("7")
	sess.Score = 20
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "7"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "7"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	got, err := store.Get(ctx, "7")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 0 {
		t.Errorf("score = %d, want fresh session", got.Score)
	}
}

func TestEventLog_LLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "tutor-chat", InputTokens: 100, OutputTokens: 40, LatencyMs: 300, Success: true, ResponseBody: "Ciao!"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "tutor-chat", InputTokens: 50, OutputTokens: 20, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "tutor-chat", LatencyMs: 200, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	list, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Sequence <= list[1].Sequence {
		t.Errorf("events not newest first: %d, %d", list[0].Sequence, list[1].Sequence)
	}
	if list[0].Success || list[0].ErrorMessage != "rate limited" {
		t.Errorf("newest = %+v, want the failed call", list[0].LLMRequestEventData)
	}

	other, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "health"})
	if err != nil || len(other) != 0 {
		t.Errorf("purpose filter = %d events, %v; want none", len(other), err)
	}

	first, err := repo.GetLLMEvent(ctx, list[1].ID-1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first == nil || first.ResponseBody != "Ciao!" {
		t.Errorf("first event = %+v", first)
	}
	missing, err := repo.GetLLMEvent(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("missing event = %v, %v; want nil, nil", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 1 {
		t.Fatalf("purposes = %d, want 1", len(byPurpose))
	}
	st := byPurpose[0]
	if st.Calls != 3 || st.InputTokens != 150 || st.OutputTokens != 60 || st.AvgLatencyMs != 200 {
		t.Errorf("usage = %+v", st)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 2 {
		t.Errorf("model usage = %+v, want 2 successful calls", byModel)
	}
}

func TestEventLog_AnswersAndLevels(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	answers := []AnswerEventData{
		{UserID: "u1", Level: "basic", Question: "q1", ExpectedAnswer: "Ciao", LearnerAnswer: "ciao", Correct: true, ScoreAfter: 10},
		{UserID: "u1", Level: "basic", Question: "q2", ExpectedAnswer: "Grazie", LearnerAnswer: "prego", Correct: false, ScoreAfter: 10},
		{UserID: "u2", Level: "basic", Question: "q1", ExpectedAnswer: "Ciao", LearnerAnswer: "ciao", Correct: true, ScoreAfter: 10},
	}
	for _, a := range answers {
		if err := repo.AppendAnswer(ctx, a); err != nil {
			t.Fatalf("append answer: %v", err)
		}
	}
	if err := repo.AppendLevelChange(ctx, LevelEventData{UserID: "u1", From: "basic", To: "intermediate", Score: 50}); err != nil {
		t.Fatalf("append level: %v", err)
	}

	st, err := repo.AnswerStats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Answered != 2 || st.Correct != 1 {
		t.Errorf("stats = %+v, want 2 answered 1 correct", st)
	}
	if st.LastAt.IsZero() {
		t.Error("expected last answer time")
	}

	hist, err := repo.LevelHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 || hist[0].To != "intermediate" {
		t.Errorf("history = %+v", hist)
	}

	if err := repo.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	st, err = repo.AnswerStats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats after delete: %v", err)
	}
	if st.Answered != 0 || !st.LastAt.IsZero() {
		t.Errorf("stats after delete = %+v", st)
	}
	other, _ := repo.AnswerStats(ctx, "u2")
	if other.Answered != 1 {
		t.Errorf("u2 answered = %d, want 1", other.Answered)
	}
}

func TestDefaultDBPath_EnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "p.db")
	t.Setenv("PARLAMI_DB", want)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestDefaultDBPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PARLAMI_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if want := filepath.Join(dir, "parlami", "parlami.db"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}
