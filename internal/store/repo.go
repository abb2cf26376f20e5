package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	After   int64  // sequence > After
	UserID  string // restrict to one learner where the table has one
	Purpose string // restrict LLM events to one purpose label
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// AnswerEventData records one graded quiz answer.
type AnswerEventData struct {
	UserID         string
	Level          string
	Question       string
	ExpectedAnswer string
	LearnerAnswer  string
	Correct        bool
	ScoreAfter     int
}

// LevelEventData records a level promotion.
type LevelEventData struct {
	UserID string
	From   string
	To     string
	Score  int
}

// UsageStat aggregates LLM usage for one purpose.
type UsageStat struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// AnswerStats summarizes a learner's quiz history.
type AnswerStats struct {
	Answered int
	Correct  int
	LastAt   time.Time
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendAnswer records a graded quiz answer.
	AppendAnswer(ctx context.Context, data AnswerEventData) error

	// AppendLevelChange records a level promotion.
	AppendLevelChange(ctx context.Context, data LevelEventData) error
}

var _ EventRepo = (*EventLog)(nil)

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
