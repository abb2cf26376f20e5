package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/parlami/internal/store"
)

type eventSink struct {
	llm []store.LLMRequestEventData
	err error
}

func (s *eventSink) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	s.llm = append(s.llm, d)
	return s.err
}

func (s *eventSink) AppendAnswer(context.Context, store.AnswerEventData) error { return nil }

func (s *eventSink) AppendLevelChange(context.Context, store.LevelEventData) error { return nil }

func TestWithLogging_RecordsSuccess(t *testing.T) {
	sink := &eventSink{}
	mock := NewMockProvider(MockResponse{Text: "Ciao!", Usage: newUsage(20, 4)})
	p := WithLogging(mock, "mock", sink, nil)

	ctx := WithCall(context.Background(), Call{Purpose: "tutor-chat", Level: "basic"})
	resp, err := p.Generate(ctx, UserTurn("Sei un tutor.", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "Ciao!", resp.Text)

	require.Len(t, sink.llm, 1)
	ev := sink.llm[0]
	assert.Equal(t, "mock", ev.Provider)
	assert.Equal(t, "tutor-chat", ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 20, ev.InputTokens)
	assert.Equal(t, 4, ev.OutputTokens)
	assert.Equal(t, "Ciao!", ev.ResponseBody)
	assert.True(t, strings.HasPrefix(ev.RequestBody, "[system]\nSei un tutor.\n\n[user]\nhello"))
}

func TestWithLogging_RecordsFailure(t *testing.T) {
	sink := &eventSink{}
	p := WithLogging(NewMockProvider(MockResponse{Err: errors.New("boom")}), "mock", sink, nil)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, sink.llm, 1)
	assert.False(t, sink.llm[0].Success)
	assert.Equal(t, "unknown", sink.llm[0].Purpose)
	assert.Contains(t, sink.llm[0].ErrorMessage, "boom")
}

func TestWithLogging_SinkFailureKeepsReply(t *testing.T) {
	sink := &eventSink{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Text: "ok"}), "mock", sink, nil)

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestWithLogging_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Text: "ok"}), "mock", nil, nil)
	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}
