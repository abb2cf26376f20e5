package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/parlami/internal/content"
	"github.com/abhisek/parlami/internal/session"
)

// SessionStore is a session.Store kept in the sessions table.
type SessionStore struct {
	db *sql.DB
}

var _ session.Store = (*SessionStore)(nil)

var sessionColumns = []string{
	"user_id", "level", "score", "state",
	"pending_question", "pending_answer", "last_interaction", "updated_at",
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*session.Session, error) {
	query, args := builder().Select(sessionColumns[:7]...).
		From(entsql.Table("sessions")).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var (
		sess  session.Session
		level string
		state string
		last  int64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&sess.UserID, &level, &sess.Score, &state,
		&sess.PendingQuestion, &sess.PendingAnswer, &last,
	)
	if errors.Is(err, sql.ErrNoRows) {
		fresh := session.New(userID)
		if err := s.Save(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.Level = content.Level(level)
	sess.State = session.State(state)
	sess.LastInteraction = fromMillis(last)
	sess.Normalize()
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	c := sess.Clone()
	c.Normalize()

	query, args := builder().Insert("sessions").
		Columns(sessionColumns...).
		Values(
			c.UserID, string(c.Level), c.Score, string(c.State),
			c.PendingQuestion, c.PendingAnswer, toMillis(c.LastInteraction), time.Now().UnixMilli(),
		).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	query, args := builder().Delete("sessions").
		Where(entsql.EQ("user_id", userID)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Count returns the number of stored sessions.
func (s *SessionStore) Count(ctx context.Context) (int, error) {
	query, args := builder().Select(entsql.Count("*")).
		From(entsql.Table("sessions")).
		Query()
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
