package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *EventLog) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert("answer_events").
		Columns("sequence", "timestamp", "user_id", "level", "question",
			"expected_answer", "learner_answer", "correct", "score_after").
		Values(seqNum, time.Now().UnixMilli(), data.UserID, data.Level, data.Question,
			data.ExpectedAnswer, data.LearnerAnswer, data.Correct, data.ScoreAfter).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *EventLog) AppendLevelChange(ctx context.Context, data LevelEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert("level_events").
		Columns("sequence", "timestamp", "user_id", "from_level", "to_level", "score").
		Values(seqNum, time.Now().UnixMilli(), data.UserID, data.From, data.To, data.Score).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save level event: %w", err)
	}
	return nil
}

// AnswerStats summarizes the quiz answers recorded for userID.
func (r *EventLog) AnswerStats(ctx context.Context, userID string) (AnswerStats, error) {
	query, args := builder().Select(
		entsql.Count("*"),
		"COALESCE(SUM(correct), 0)",
		"COALESCE(MAX(timestamp), 0)",
	).
		From(entsql.Table("answer_events")).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var st AnswerStats
	var last int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&st.Answered, &st.Correct, &last); err != nil {
		return AnswerStats{}, fmt.Errorf("query answer stats: %w", err)
	}
	st.LastAt = fromMillis(last)
	return st, nil
}

// LevelHistory returns the promotions recorded for userID, oldest first.
func (r *EventLog) LevelHistory(ctx context.Context, userID string) ([]LevelEventData, error) {
	query, args := builder().Select("from_level", "to_level", "score").
		From(entsql.Table("level_events")).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("sequence").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query level history: %w", err)
	}
	defer rows.Close()

	var out []LevelEventData
	for rows.Next() {
		ev := LevelEventData{UserID: userID}
		if err := rows.Scan(&ev.From, &ev.To, &ev.Score); err != nil {
			return nil, fmt.Errorf("scan level event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// DeleteUser removes every event recorded for userID.
func (r *EventLog) DeleteUser(ctx context.Context, userID string) error {
	for _, table := range []string{"answer_events", "level_events"} {
		query, args := builder().Delete(table).Where(entsql.EQ("user_id", userID)).Query()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

