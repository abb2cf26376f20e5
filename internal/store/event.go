package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// sequence numbers every row of every event table from one counter, so
// answers, promotions and LLM calls replay in the order they happened.
// The row lives in global_sequence, created by migrate.
type sequence struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequence(ctx context.Context, db *sql.DB) (*sequence, error) {
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`); err != nil {
		return nil, fmt.Errorf("seed event sequence: %w", err)
	}
	return &sequence{db: db}, nil
}

// Next claims the next number. The mutex orders callers in this process;
// RETURNING keeps the claim a single statement for SQLite.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	row := s.db.QueryRowContext(ctx, `UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("claim event sequence: %w", err)
	}
	return n, nil
}
