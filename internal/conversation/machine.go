// Package conversation implements the per-learner tutoring state machine
// and the engine that applies it to stored sessions.
package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/abhisek/parlami/internal/content"
	"github.com/abhisek/parlami/internal/logger"
	"github.com/abhisek/parlami/internal/mastery"
	"github.com/abhisek/parlami/internal/metrics"
	"github.com/abhisek/parlami/internal/quiz"
	"github.com/abhisek/parlami/internal/session"
	"github.com/abhisek/parlami/internal/store"
	"github.com/abhisek/parlami/internal/tutor"
)

// Content is the read-only content the machine teaches from.
type Content interface {
	Translate(level content.Level, key string) (string, bool)
	Phrases(level content.Level) []content.Phrase
	SampleQuestion(level content.Level) (content.Question, error)
}

// Tutor answers free-form chat. On failure it returns a fallback reply
// together with the error.
type Tutor interface {
	Respond(ctx context.Context, level content.Level, input string) (string, error)
}

// EventRecorder receives quiz answers and level promotions.
type EventRecorder interface {
	AppendAnswer(ctx context.Context, data store.AnswerEventData) error
	AppendLevelChange(ctx context.Context, data store.LevelEventData) error
}

// Machine applies one Input to a Session. It holds no per-learner state.
type Machine struct {
	content Content
	tutor   Tutor
	events  EventRecorder
	log     *logger.Logger
}

// NewMachine creates a Machine. events may be nil.
func NewMachine(c Content, t Tutor, events EventRecorder, log *logger.Logger) *Machine {
	if log == nil {
		log = logger.Nop()
	}
	return &Machine{content: c, tutor: t, events: events, log: log.With("component", "conversation")}
}

// Handle mutates s according to in and returns the reply. Commands apply
// in any state; free text is routed by the current state.
func (m *Machine) Handle(ctx context.Context, s *session.Session, in Input) Reply {
	if in.Kind == KindCommand {
		return m.command(ctx, s, in)
	}

	switch s.State {
	case session.StatePhraseBrowsing:
		return m.phrase(s, in.Text)
	case session.StateQuizActive:
		return m.answer(ctx, s, in.Text)
	case session.StateQuizFeedback:
		if strings.EqualFold(strings.TrimSpace(in.Text), "yes") {
			return m.ask(s)
		}
		s.State = session.StateIdle
		return say(msgQuizClosing)
	case session.StateChatActive:
		if strings.EqualFold(strings.TrimSpace(in.Text), "stop") {
			s.State = session.StateIdle
			return say(msgChatClosing)
		}
		return m.chat(ctx, s, in.Text)
	default:
		return Reply{Silent: true}
	}
}

func (m *Machine) command(ctx context.Context, s *session.Session, in Input) Reply {
	switch in.Command {
	case CmdStart:
		return say(welcome(in.DisplayName, s))
	case CmdCancel:
		s.State = session.StateIdle
		s.ClearPending()
		return say(msgCancelled)
	case CmdPhrases:
		s.State = session.StatePhraseBrowsing
		s.ClearPending()
		return say(phraseList(s.Level, m.content.Phrases(s.Level)), msgPhraseHint)
	case CmdQuiz:
		return m.ask(s)
	case CmdChat:
		s.State = session.StateChatActive
		s.ClearPending()
		return say(msgChatIntro)
	case CmdProgress:
		return say(progress(s, s.LastInteraction))
	case CmdReset:
		s.Reset()
		return say(resetDone(s))
	default:
		return say(msgUnknownCommand)
	}
}

func (m *Machine) phrase(s *session.Session, text string) Reply {
	translation, ok := m.content.Translate(s.Level, strings.TrimSpace(text))
	if !ok {
		return say(msgPhraseNotFound)
	}
	return Reply{Messages: []string{translation}, Speech: translation}
}

// ask samples a fresh question and enters quiz_active.
func (m *Machine) ask(s *session.Session) Reply {
	q, err := m.content.SampleQuestion(s.Level)
	if err != nil {
		// Startup validation rules this out for a loaded bank.
		m.log.Error("no quiz question available", "level", s.Level, "error", err)
		s.State = session.StateIdle
		s.ClearPending()
		return say(msgNoQuestions)
	}
	s.State = session.StateQuizActive
	s.PendingQuestion = q.Question
	s.PendingAnswer = q.Answer
	return say(quizPrompt(q))
}

func (m *Machine) answer(ctx context.Context, s *session.Session, text string) Reply {
	expected := s.PendingAnswer
	question := s.PendingQuestion
	res := quiz.Evaluate(text, expected)

	var lt *mastery.LevelTransition
	if res.Correct {
		s.Score += res.Delta
		lt = mastery.Promote(s.Level, s.Score)
		if lt != nil {
			s.Level = lt.To
		}
	}
	s.State = session.StateQuizFeedback
	s.ClearPending()

	metrics.QuizAnswers.WithLabelValues(strconv.FormatBool(res.Correct)).Inc()
	m.record(ctx, s, question, expected, text, res.Correct, lt)

	if !res.Correct {
		return say(wrongAnswer(expected, s.Score))
	}
	return say(correctAnswer(s.Score, lt))
}

func (m *Machine) chat(ctx context.Context, s *session.Session, text string) Reply {
	reply, err := m.tutor.Respond(ctx, s.Level, text)
	if err != nil {
		var ce *tutor.CompletionError
		if !errors.As(err, &ce) {
			reply = tutor.Apology
		}
		metrics.CollaboratorFailures.WithLabelValues(metrics.Completion).Inc()
		m.log.Warn("chat reply fell back to apology", "user_id", s.UserID, "error", err)
		return say(reply)
	}
	return Reply{Messages: []string{reply}, Speech: reply}
}

func (m *Machine) record(ctx context.Context, s *session.Session, question, expected, given string, correct bool, lt *mastery.LevelTransition) {
	if lt != nil {
		metrics.LevelUps.WithLabelValues(string(lt.To)).Inc()
		m.log.Info("level up", "user_id", s.UserID, "from", lt.From, "to", lt.To, "score", lt.Score)
	}
	if m.events == nil {
		return
	}
	err := m.events.AppendAnswer(ctx, store.AnswerEventData{
		UserID:         s.UserID,
		Level:          string(s.Level),
		Question:       question,
		ExpectedAnswer: expected,
		LearnerAnswer:  strings.TrimSpace(given),
		Correct:        correct,
		ScoreAfter:     s.Score,
	})
	if err != nil {
		m.log.Warn("failed to record answer event", "user_id", s.UserID, "error", err)
	}
	if lt == nil {
		return
	}
	err = m.events.AppendLevelChange(ctx, store.LevelEventData{
		UserID: s.UserID,
		From:   string(lt.From),
		To:     string(lt.To),
		Score:  lt.Score,
	})
	if err != nil {
		m.log.Warn("failed to record level event", "user_id", s.UserID, "error", err)
	}
}
