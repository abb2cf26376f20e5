package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{
	MaxAttempts: 3,
	InitialWait: time.Millisecond,
	MaxWait:     10 * time.Millisecond,
	Multiplier:  2,
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Status: 503, Err: errors.New("down")}}
}

func TestWithRetry_Attempts(t *testing.T) {
	tests := []struct {
		name      string
		responses []MockResponse
		wantText  string
		wantCalls int
	}{
		{"first attempt", []MockResponse{{Text: "ok"}}, "ok", 1},
		{"recovers after outage", []MockResponse{down(), {Text: "ok"}}, "ok", 2},
		{"gives up after max attempts", []MockResponse{down(), down(), down(), {Text: "late"}}, "", 3},
		{"truncation is final", []MockResponse{{Err: &ErrMaxTokensExceeded{Text: "troncato"}}, {Text: "ok"}}, "", 1},
		{"empty reply gets one more try", []MockResponse{
			{Err: emptyReply("mock")}, {Err: emptyReply("mock")}, {Text: "ok"},
		}, "", 2},
		{"rate limit honors hint", []MockResponse{
			{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, {Text: "ok"},
		}, "ok", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			resp, err := WithRetry(mock, fastRetry).Generate(t.Context(), Request{})

			if tt.wantText == "" {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, resp.Text)
			}
			assert.Equal(t, tt.wantCalls, mock.CallCount())
		})
	}
}

func TestWithRetry_CanceledContext(t *testing.T) {
	mock := NewMockProvider(down(), down(), MockResponse{Text: "ok"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(mock, fastRetry).Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRetry_KeepsModelID(t *testing.T) {
	assert.Equal(t, "mock", WithRetry(NewMockProvider(), fastRetry).ModelID())
}

func TestRetryDelay(t *testing.T) {
	r := &retrying{cfg: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2}}

	first := r.delay(0, errors.New("boom"))
	assert.InDelta(t, float64(100*time.Millisecond), float64(first), float64(20*time.Millisecond))

	capped := r.delay(10, errors.New("boom"))
	assert.LessOrEqual(t, capped, 1200*time.Millisecond)

	hinted := r.delay(0, &ErrRateLimit{RetryAfter: 3 * time.Second})
	assert.Equal(t, 3*time.Second, hinted)
}

// stalled never answers before its context ends.
type stalled struct{ calls int }

func (s *stalled) ModelID() string { return "stalled" }

func (s *stalled) Generate(ctx context.Context, _ Request) (*Response, error) {
	s.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout_BoundsSlowProvider(t *testing.T) {
	p := &stalled{}
	start := time.Now()
	_, err := WithTimeout(WithRetry(p, fastRetry), 30*time.Millisecond).Generate(t.Context(), Request{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, p.calls)
}

func TestWithTimeout_CoversRetryWaits(t *testing.T) {
	mock := NewMockProvider(down(), down(), MockResponse{Text: "ok"})
	slow := RetryConfig{MaxAttempts: 3, InitialWait: time.Minute, MaxWait: time.Minute, Multiplier: 1}

	start := time.Now()
	_, err := WithTimeout(WithRetry(mock, slow), 30*time.Millisecond).Generate(t.Context(), Request{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithTimeout_NonPositiveIsPassThrough(t *testing.T) {
	mock := NewMockProvider()
	assert.Same(t, Provider(mock), WithTimeout(mock, 0))
}
