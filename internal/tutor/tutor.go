// Package tutor turns free-form learner input into an Italian tutoring
// reply from an LLM.
package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/parlami/internal/content"
	"github.com/abhisek/parlami/internal/llm"
	"github.com/abhisek/parlami/internal/logger"
)

// Apology is sent in place of a tutor reply when the completion fails.
const Apology = "Mi dispiace, non riesco a rispondere in questo momento. Riprova tra poco!"

// Purpose labels tutor completions in the LLM event log.
const Purpose = "tutor-chat"

const (
	defaultTimeout   = 20 * time.Second
	defaultMaxTokens = 300
)

// CompletionError reports a failed tutor completion. The reply returned
// alongside it is always Apology.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("tutor completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Options configures an Orchestrator.
type Options struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Orchestrator builds tutoring prompts and calls the LLM.
type Orchestrator struct {
	provider llm.Provider
	opts     Options
	log      *logger.Logger
}

// New creates an Orchestrator. Zero options take defaults.
func New(provider llm.Provider, opts Options, log *logger.Logger) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{provider: provider, opts: opts, log: log.With("component", "tutor")}
}

// Respond asks the tutor to answer input at the learner's level. On
// failure it returns Apology and a *CompletionError.
func (o *Orchestrator) Respond(ctx context.Context, level content.Level, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	req := BuildRequest(level, input)
	req.MaxTokens = o.opts.MaxTokens
	req.Temperature = o.opts.Temperature

	ctx = llm.WithCall(ctx, llm.Call{Purpose: Purpose, Level: string(level)})
	resp, err := o.provider.Generate(ctx, req)
	if err != nil {
		o.log.Warn("tutor completion failed", "level", level, "error", err)
		return Apology, &CompletionError{Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		err := &llm.ErrInvalidResponse{Err: fmt.Errorf("empty tutor reply")}
		o.log.Warn("tutor completion failed", "level", level, "error", err)
		return Apology, &CompletionError{Err: err}
	}
	if resp.Truncated() {
		o.log.Debug("tutor reply hit the token cap", "level", level, "max_tokens", req.MaxTokens)
	}
	return text, nil
}
