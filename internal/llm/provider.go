// Package llm talks to the chat-completion backends behind the tutor.
// Every backend satisfies Provider; WithRetry and WithLogging stack on top.
package llm

import "context"

// Provider produces one tutor reply per call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call. A zero Temperature leaves the
// backend's own default in place.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// UserTurn builds a request holding one learner message under system.
func UserTurn(system, text string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: text}},
	}
}

// Normalized values of Response.StopReason.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

type Response struct {
	Text  string
	Usage Usage
	// Model is the model that served the call, which can differ from the
	// configured alias.
	Model      string
	StopReason string
}

// Truncated reports whether the backend cut the reply at MaxTokens.
func (r *Response) Truncated() bool {
	return r != nil && r.StopReason == StopMaxTokens
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func newUsage(in, out int) Usage {
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}
