package session

import (
	"time"

	"github.com/abhisek/parlami/internal/content"
)

// State is the learner's position in the conversation state machine.
type State string

const (
	StateIdle           State = "idle"
	StatePhraseBrowsing State = "phrase_browsing"
	StateQuizActive     State = "quiz_active"
	StateQuizFeedback   State = "quiz_feedback"
	StateChatActive     State = "chat_active"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StatePhraseBrowsing, StateQuizActive, StateQuizFeedback, StateChatActive:
		return true
	}
	return false
}

// Session is one learner's mutable learning record.
type Session struct {
	UserID string `json:"user_id"`

	// Level only moves upward, except on an explicit reset.
	Level content.Level `json:"level"`

	// Score grows by quiz.PointsPerCorrect per correct answer.
	Score int `json:"score"`

	State State `json:"state"`

	// PendingQuestion and PendingAnswer describe the in-flight quiz
	// question. They are set only while State is StateQuizActive.
	PendingQuestion string `json:"pending_question,omitempty"`
	PendingAnswer   string `json:"pending_answer,omitempty"`

	// LastInteraction is stamped on every handled event. Zero means never.
	LastInteraction time.Time `json:"last_interaction"`
}

// New returns the default session for a first-time learner.
func New(userID string) *Session {
	return &Session{
		UserID: userID,
		Level:  content.LevelBasic,
		Score:  0,
		State:  StateIdle,
	}
}

// Clone returns a copy of s.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// ClearPending drops the in-flight quiz question.
func (s *Session) ClearPending() {
	s.PendingQuestion = ""
	s.PendingAnswer = ""
}

// Reset returns the session to its initial learning state, keeping the
// user id and last interaction time.
func (s *Session) Reset() {
	s.Level = content.LevelBasic
	s.Score = 0
	s.State = StateIdle
	s.ClearPending()
}

// Normalize repairs a loaded record. Records that cannot be trusted
// (unknown level or state, negative score) are replaced by the default
// session. It reports whether the record was rebuilt.
func (s *Session) Normalize() bool {
	if !s.Level.Valid() || !s.State.Valid() || s.Score < 0 {
		last := s.LastInteraction
		*s = *New(s.UserID)
		s.LastInteraction = last
		return true
	}
	if s.State != StateQuizActive {
		s.ClearPending()
	} else if s.PendingAnswer == "" {
		// A quiz with nothing to check against cannot continue.
		s.State = StateIdle
		s.ClearPending()
	}
	return false
}
