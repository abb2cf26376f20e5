package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/parlami/internal/logger"
	"github.com/abhisek/parlami/internal/metrics"
	"github.com/abhisek/parlami/internal/session"
)

// now is swapped in tests.
var now = time.Now

// Engine runs turns against a session store, one at a time per learner.
type Engine struct {
	store   session.Store
	machine *Machine
	locks   *session.KeyedMutex
	log     *logger.Logger
}

// NewEngine creates an Engine.
func NewEngine(store session.Store, machine *Machine, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:   store,
		machine: machine,
		locks:   session.NewKeyedMutex(),
		log:     log.With("component", "engine"),
	}
}

// Turn loads the learner's session, applies in and saves the result. The
// returned Reply is always safe to send; a non-nil error means the store
// failed and the reply is an apology.
func (e *Engine) Turn(ctx context.Context, userID string, in Input) (Reply, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	if l, ok := e.store.(session.Locker); ok {
		release, err := l.LockUser(ctx, userID)
		if err != nil {
			metrics.CollaboratorFailures.WithLabelValues(metrics.Store).Inc()
			e.log.Error("lock session failed", "user_id", userID, "error", err)
			return say(StoreApology), fmt.Errorf("lock session: %w", err)
		}
		defer release()
	}

	s, err := e.store.Get(ctx, userID)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.Store).Inc()
		e.log.Error("load session failed", "user_id", userID, "error", err)
		return say(StoreApology), fmt.Errorf("load session: %w", err)
	}

	reply := e.machine.Handle(ctx, s, in)
	s.LastInteraction = now().UTC()

	if err := e.store.Save(ctx, s); err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.Store).Inc()
		e.log.Error("save session failed", "user_id", userID, "error", err)
		return say(StoreApology), fmt.Errorf("save session: %w", err)
	}

	metrics.Turns.WithLabelValues(string(s.State)).Inc()
	e.log.Debug("turn handled", "user_id", userID, "state", s.State, "level", s.Level, "score", s.Score)
	return reply, nil
}

// Session returns a copy of the learner's stored session.
func (e *Engine) Session(ctx context.Context, userID string) (*session.Session, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()
	return e.store.Get(ctx, userID)
}
