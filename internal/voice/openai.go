package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the Whisper transcriber and TTS synthesizer.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	// TranscriptionModel defaults to whisper-1.
	TranscriptionModel string
	// SpeechModel defaults to tts-1.
	SpeechModel string
	// Voice defaults to alloy.
	Voice string
}

func newOpenAIClient(cfg OpenAIConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required for voice")
	}
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c), nil
}

// OpenAITranscriber transcribes Italian speech with Whisper.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAITranscriber creates a Whisper transcriber.
func NewOpenAITranscriber(cfg OpenAIConfig) (*OpenAITranscriber, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.TranscriptionModel
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{client: client, model: model}, nil
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", &TranscriptionError{Unintelligible: true}
	}
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   bytes.NewReader(audio),
		FilePath: fileName(mimeType),
		Language: "it",
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &TranscriptionError{Unintelligible: true}
	}
	return text, nil
}

// OpenAISynthesizer voices text with OpenAI TTS as Ogg/Opus.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

// NewOpenAISynthesizer creates a TTS synthesizer.
func NewOpenAISynthesizer(cfg OpenAIConfig) (*OpenAISynthesizer, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	model := openai.SpeechModel(cfg.SpeechModel)
	if model == "" {
		model = openai.TTSModel1
	}
	v := openai.SpeechVoice(cfg.Voice)
	if v == "" {
		v = openai.VoiceAlloy
	}
	return &OpenAISynthesizer{client: client, model: model, voice: v}, nil
}

// Synthesize returns Ogg/Opus audio. OpenAI voices pick the language from
// the text, so languageCode is not sent.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("empty text")}
	}
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatOpus,
	})
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("read audio: %w", err)}
	}
	if len(audio) == 0 {
		return nil, &SynthesisError{Err: fmt.Errorf("empty audio")}
	}
	return audio, nil
}
