package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/parlami/internal/content"
	"github.com/abhisek/parlami/internal/llm"
)

func TestRespond_ReturnsTrimmedText(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "  Ciao! Come stai?\nFeedback: ottimo.  "})
	o := New(mock, Options{}, nil)

	got, err := o.Respond(context.Background(), content.LevelBasic, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Ciao! Come stai?\nFeedback: ottimo." {
		t.Errorf("reply = %q", got)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
	req := mock.Calls[0]
	if req.MaxTokens != defaultMaxTokens {
		t.Errorf("max tokens = %d, want %d", req.MaxTokens, defaultMaxTokens)
	}
}

func TestRespond_FailureReturnsApology(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"rate limit", llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}}},
		{"unavailable", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}},
		{"blank reply", llm.MockResponse{Text: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(llm.NewMockProvider(tt.resp), Options{}, nil)
			got, err := o.Respond(context.Background(), content.LevelBasic, "hello")
			if got != Apology {
				t.Errorf("reply = %q, want apology", got)
			}
			var ce *CompletionError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *CompletionError", err)
			}
		})
	}
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestRespond_Timeout(t *testing.T) {
	o := New(slowProvider{}, Options{Timeout: 10 * time.Millisecond}, nil)

	start := time.Now()
	got, err := o.Respond(context.Background(), content.LevelBasic, "hello")
	if time.Since(start) > time.Second {
		t.Fatal("timeout not applied")
	}
	if got != Apology {
		t.Errorf("reply = %q, want apology", got)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

type purposeProvider struct{ got llm.Call }

func (p *purposeProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	p.got = llm.CallFrom(ctx)
	return &llm.Response{Text: "ok"}, nil
}

func (p *purposeProvider) ModelID() string { return "purpose" }

func TestRespond_LabelsPurpose(t *testing.T) {
	p := &purposeProvider{}
	if _, err := New(p, Options{}, nil).Respond(context.Background(), content.LevelBasic, "ciao"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.got.Purpose != Purpose {
		t.Errorf("purpose = %q, want %q", p.got.Purpose, Purpose)
	}
	if p.got.Level != string(content.LevelBasic) {
		t.Errorf("level = %q, want %q", p.got.Level, content.LevelBasic)
	}
}

func TestBuildRequest(t *testing.T) {
	req := BuildRequest(content.LevelIntermediate, "  I   would like   a coffee ")

	if !strings.Contains(req.System, "Italian") {
		t.Error("system prompt should ask for Italian")
	}
	if !strings.Contains(req.System, "translation") {
		t.Error("system prompt should ask to translate English input")
	}
	if !strings.Contains(req.System, "Feedback:") {
		t.Error("system prompt should ask for feedback")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != llm.RoleUser {
		t.Fatalf("messages = %+v", req.Messages)
	}
	msg := req.Messages[0].Content
	if !strings.Contains(msg, "Learner level: intermediate.") {
		t.Errorf("message missing level: %q", msg)
	}
	if !strings.HasSuffix(msg, "I would like a coffee") {
		t.Errorf("message missing normalized input: %q", msg)
	}
}

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Ciao  ", "Ciao"},
		{"come\n\tstai", "come stai"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeInput(tt.in); got != tt.want {
			t.Errorf("NormalizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
