package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/abhisek/parlami/internal/conversation"
	"github.com/abhisek/parlami/internal/logger"
	"github.com/abhisek/parlami/internal/metrics"
	"github.com/abhisek/parlami/internal/voice"
)

// ErrClosed is returned by Dispatch once Wait has been called.
var ErrClosed = errors.New("dispatcher closed")

// Turner runs one conversation turn for a learner.
type Turner interface {
	Turn(ctx context.Context, userID string, in conversation.Input) (conversation.Reply, error)
}

// Options tunes a Dispatcher. Zero values take the defaults.
type Options struct {
	MaxConcurrentTurns int
	ReplyMode          ReplyMode
	TranscribeTimeout  time.Duration
	SynthesizeTimeout  time.Duration
	SendTimeout        time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrentTurns <= 0 {
		o.MaxConcurrentTurns = 16
	}
	if o.ReplyMode == "" {
		o.ReplyMode = ReplyModeVoice
	}
	if o.TranscribeTimeout <= 0 {
		o.TranscribeTimeout = 30 * time.Second
	}
	if o.SynthesizeTimeout <= 0 {
		o.SynthesizeTimeout = 30 * time.Second
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 15 * time.Second
	}
	return o
}

// Deps are the Dispatcher's collaborators. Transcriber and Synthesizer are
// optional; Transport is only needed for Dispatch.
type Deps struct {
	Turner      Turner
	Transcriber voice.Transcriber
	Synthesizer voice.Synthesizer
	Transport   Transport
}

// Dispatcher runs learner events through the conversation engine. Events
// of one learner apply in arrival order; different learners run
// concurrently up to MaxConcurrentTurns.
type Dispatcher struct {
	deps Deps
	opts Options
	sem  *semaphore.Weighted
	log  *logger.Logger

	mu     sync.Mutex
	queues map[string][]Event
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(deps Deps, opts Options, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	opts = opts.withDefaults()
	return &Dispatcher{
		deps:   deps,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrentTurns)),
		log:    log.With("component", "dispatcher"),
		queues: make(map[string][]Event),
	}
}

// Dispatch queues ev behind any pending events of the same learner and
// returns immediately. Replies go out through the Transport.
func (d *Dispatcher) Dispatch(ev Event) error {
	if d.deps.Transport == nil {
		return errors.New("dispatch: no transport configured")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	q, running := d.queues[ev.UserID]
	d.queues[ev.UserID] = append(q, ev)
	metrics.QueuedEvents.Inc()
	if !running {
		d.wg.Add(1)
		metrics.ActiveUsers.Inc()
		go d.drain(ev.UserID)
	}
	return nil
}

// drain works through one learner's queue until it is empty.
func (d *Dispatcher) drain(userID string) {
	defer d.wg.Done()
	defer metrics.ActiveUsers.Dec()

	for {
		d.mu.Lock()
		q := d.queues[userID]
		if len(q) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.queues[userID] = q[1:]
		d.mu.Unlock()
		metrics.QueuedEvents.Dec()

		ctx := context.Background()
		out, err := d.Process(ctx, ev)
		if err != nil {
			d.log.Warn("turn completed with error", "turn_id", out.TurnID, "user_id", userID, "error", err)
		}
		d.deliver(ctx, out)
	}
}

// Process handles ev synchronously and returns what should be sent back.
// A non-nil error still comes with a sendable Outbound.
func (d *Dispatcher) Process(ctx context.Context, ev Event) (Outbound, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	out := Outbound{TurnID: ev.ID, UserID: ev.UserID}
	if strings.TrimSpace(ev.UserID) == "" {
		return out, errors.New("event has no user id")
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return out, fmt.Errorf("acquire turn slot: %w", err)
	}
	defer d.sem.Release(1)

	start := time.Now()
	defer func() { metrics.TurnDuration.Observe(time.Since(start).Seconds()) }()

	in := d.resolve(ctx, ev)
	if ev.Kind == KindVoice {
		out.Transcript = in.Text
	}

	reply, turnErr := d.deps.Turner.Turn(ctx, ev.UserID, in)
	out.Messages = reply.Messages
	out.Silent = reply.Silent

	if d.shouldVoice(ev, reply) {
		out.Voice = d.synthesize(ctx, ev, reply.Speech)
	}

	if turnErr != nil {
		return out, fmt.Errorf("turn %s: %w", ev.ID, turnErr)
	}
	return out, nil
}

// resolve turns an event into conversation input. Voice is transcribed
// here, before the engine takes the learner's lock.
func (d *Dispatcher) resolve(ctx context.Context, ev Event) conversation.Input {
	var in conversation.Input
	switch ev.Kind {
	case KindCommand:
		in = conversation.Parse("/" + strings.TrimPrefix(strings.TrimSpace(ev.Payload), "/"))
	case KindVoice:
		in = conversation.Text(d.transcribe(ctx, ev))
		in.FromVoice = true
	default:
		in = conversation.Parse(ev.Payload)
	}
	in.DisplayName = ev.DisplayName
	return in
}

func (d *Dispatcher) transcribe(ctx context.Context, ev Event) string {
	if d.deps.Transcriber == nil {
		d.log.Warn("voice message without transcriber", "turn_id", ev.ID, "user_id", ev.UserID)
		return conversation.UnintelligibleAudio
	}
	tctx, cancel := context.WithTimeout(ctx, d.opts.TranscribeTimeout)
	defer cancel()

	audio := ev.Audio
	if len(audio) == 0 && ev.FetchAudio != nil {
		var err error
		if audio, err = ev.FetchAudio(tctx); err != nil {
			metrics.CollaboratorFailures.WithLabelValues(metrics.Transcription).Inc()
			d.log.Warn("voice download failed", "turn_id", ev.ID, "user_id", ev.UserID, "error", err)
			return conversation.UnintelligibleAudio
		}
	}

	text, err := d.deps.Transcriber.Transcribe(tctx, audio, ev.MIMEType)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.Transcription).Inc()
		d.log.Warn("transcription failed", "turn_id", ev.ID, "user_id", ev.UserID, "error", err)
		return conversation.UnintelligibleAudio
	}
	return text
}

func (d *Dispatcher) shouldVoice(ev Event, reply conversation.Reply) bool {
	if d.deps.Synthesizer == nil || reply.Silent || reply.Speech == "" {
		return false
	}
	switch d.opts.ReplyMode {
	case ReplyModeAlways:
		return true
	case ReplyModeVoice:
		return ev.Kind == KindVoice
	default:
		return false
	}
}

// synthesize runs after the turn has released the learner's lock. A nil
// result means the reply goes out as text only.
func (d *Dispatcher) synthesize(ctx context.Context, ev Event, text string) []byte {
	sctx, cancel := context.WithTimeout(ctx, d.opts.SynthesizeTimeout)
	defer cancel()

	audio, err := d.deps.Synthesizer.Synthesize(sctx, text, voice.ItalianLanguageCode)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.Synthesis).Inc()
		d.log.Warn("synthesis failed, replying with text only", "turn_id", ev.ID, "user_id", ev.UserID, "error", err)
		return nil
	}
	return audio
}

func (d *Dispatcher) deliver(ctx context.Context, out Outbound) {
	if out.Silent {
		return
	}
	for _, msg := range out.Messages {
		if msg == "" {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
		err := d.deps.Transport.SendText(sctx, out.UserID, msg)
		cancel()
		if err != nil {
			metrics.CollaboratorFailures.WithLabelValues(metrics.Transport).Inc()
			d.log.Error("send text failed", "turn_id", out.TurnID, "user_id", out.UserID, "error", err)
		}
	}
	if len(out.Voice) > 0 {
		sctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
		err := d.deps.Transport.SendVoice(sctx, out.UserID, out.Voice)
		cancel()
		if err != nil {
			metrics.CollaboratorFailures.WithLabelValues(metrics.Transport).Inc()
			d.log.Error("send voice failed", "turn_id", out.TurnID, "user_id", out.UserID, "error", err)
		}
	}
}

// Wait stops accepting new events and blocks until every queued event has
// been handled and delivered.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// Pending reports how many events are queued and not yet started.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, q := range d.queues {
		n += len(q)
	}
	return n
}
