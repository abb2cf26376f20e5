package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiStopReason(t *testing.T) {
	tests := []struct {
		reason genai.FinishReason
		want   string
	}{
		{"STOP", "end"},
		{"MAX_TOKENS", "max_tokens"},
		{"SAFETY", "end"},
	}
	for _, tt := range tests {
		result := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: tt.reason}},
		}
		if got := geminiStop(result); got != tt.want {
			t.Errorf("geminiStop(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
	if got := geminiStop(&genai.GenerateContentResponse{}); got != "end" {
		t.Errorf("no candidates = %q, want end", got)
	}
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	if _, err := NewGeminiProvider(t.Context(), GeminiConfig{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestGeminiRequestShape(t *testing.T) {
	req := Request{
		System:      "Sei un tutor.",
		Messages:    []Message{{Role: RoleUser, Content: "Ciao"}, {Role: RoleAssistant, Content: "Ciao a te!"}},
		MaxTokens:   120,
		Temperature: 0.4,
	}

	contents := geminiContents(req.Messages)
	if len(contents) != 2 || contents[0].Role != string(genai.RoleUser) || contents[1].Role != string(genai.RoleModel) {
		t.Fatalf("unexpected roles in %+v", contents)
	}
	if contents[1].Parts[0].Text != "Ciao a te!" {
		t.Errorf("assistant text = %q", contents[1].Parts[0].Text)
	}

	cfg := geminiConfig(req)
	if cfg.MaxOutputTokens != 120 {
		t.Errorf("MaxOutputTokens = %d, want 120", cfg.MaxOutputTokens)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.4) {
		t.Errorf("Temperature = %v, want 0.4", cfg.Temperature)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "Sei un tutor." {
		t.Errorf("SystemInstruction = %+v", cfg.SystemInstruction)
	}
	if geminiConfig(Request{}).Temperature != nil {
		t.Error("zero temperature should leave the backend default")
	}
}
