package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/parlami/internal/logger"
	"github.com/abhisek/parlami/internal/store"
)

// WithLogging records every call made through p in repo and the log. A nil
// repo only logs. Recording failures never change the call's result.
func WithLogging(p Provider, name string, repo store.EventRepo, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &recorded{Provider: p, name: name, repo: repo, log: log}
}

type recorded struct {
	Provider
	name string
	repo store.EventRepo
	log  *logger.Logger
}

func (r *recorded) Generate(ctx context.Context, req Request) (*Response, error) {
	call := CallFrom(ctx)
	start := time.Now()
	resp, err := r.Provider.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    r.name,
		Model:       r.ModelID(),
		Purpose:     call.Purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		ev.InputTokens, ev.OutputTokens = resp.Usage.InputTokens, resp.Usage.OutputTokens
		ev.ResponseBody = resp.Text
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	}

	fields := []any{
		"provider", r.name, "model", ev.Model, "purpose", call.Purpose,
		"level", call.Level, "latency_ms", ev.LatencyMs,
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		r.log.Warn("llm call failed", append(fields, "error", err)...)
	} else {
		r.log.Debug("llm call", append(fields, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)...)
	}

	if r.repo != nil {
		if rerr := r.repo.AppendLLMRequest(ctx, ev); rerr != nil {
			r.log.Warn("llm call not recorded", "error", rerr)
		}
	}
	return resp, err
}

// transcript renders req as the readable text stored with each event.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	return b.String()
}
