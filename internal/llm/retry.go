package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// WithRetry repeats failed calls up to cfg.MaxAttempts times. Waits grow
// exponentially from cfg.InitialWait, are capped at cfg.MaxWait and carry
// 20% jitter. A rate limit with a RetryAfter hint waits exactly that long.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retrying{Provider: p, cfg: cfg}
}

// WithTimeout bounds each Generate call to d, retries and their waits
// included. A non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timed{Provider: p, d: d}
}

type timed struct {
	Provider
	d time.Duration
}

func (t *timed) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Provider.Generate(ctx, req)
}

type retrying struct {
	Provider
	cfg RetryConfig
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	budget := retryBudget{invalidLeft: 1}

	var err error
	for attempt := range attempts {
		if attempt > 0 {
			if werr := sleep(ctx, r.delay(attempt-1, err)); werr != nil {
				return nil, werr
			}
		}

		var resp *Response
		resp, err = r.Provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !budget.allow(err) {
			return nil, err
		}
	}
	return nil, err
}

// retryBudget decides whether a failure may be repeated. An empty reply
// gets one second chance; truncation and cancellation get none.
type retryBudget struct {
	invalidLeft int
}

func (b *retryBudget) allow(err error) bool {
	var (
		truncated *ErrMaxTokensExceeded
		invalid   *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, &truncated):
		return false
	case errors.As(err, &invalid):
		b.invalidLeft--
		return b.invalidLeft >= 0
	default:
		return true
	}
}

func (r *retrying) delay(n int, cause error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(cause, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(n))
	d = math.Min(d, float64(r.cfg.MaxWait))
	d *= 1 + 0.2*(2*rand.Float64()-1)
	return time.Duration(math.Max(d, 0))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
