package llm

import (
	"context"
	"strings"
	"sync"
)

// MockResponse is one scripted outcome for MockProvider. A non-nil Err
// wins over Text.
type MockResponse struct {
	Text  string
	Usage Usage
	Err   error
}

// MockProvider replays scripted responses in order and keeps every request
// it saw. Once the script runs out it reports the backend as unavailable.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	Calls  []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.script) == 0 {
		return nil, &ErrProviderUnavailable{}
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Text: next.Text, Usage: next.Usage, Model: "mock", StopReason: StopEnd}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// NewEchoProvider backs the "mock" provider setting. It answers with the
// last line of the final message, which for a tutor prompt is the
// learner's own text.
func NewEchoProvider() Provider { return echo{} }

type echo struct{}

func (echo) ModelID() string { return "mock" }

func (echo) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, emptyReply("mock")
	}
	said := req.Messages[len(req.Messages)-1].Content
	if i := strings.LastIndexByte(said, '\n'); i >= 0 {
		said = said[i+1:]
	}
	return &Response{Text: "Hai detto: " + said, Model: "mock", StopReason: StopEnd}, nil
}
