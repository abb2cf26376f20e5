package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearProviderEnv hides any real keys from the developer's shell.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "PARLAMI_LLM_OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearProviderEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.Equal(t, "on", cfg.Log.Redaction)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "parlami:session:", cfg.Store.Redis.KeyPrefix)
	assert.Equal(t, 20*time.Second, cfg.Tutor.Timeout)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, "none", cfg.Voice.Transcriber)
	assert.Equal(t, "voice", cfg.Voice.ReplyMode)
	assert.Equal(t, "it-IT", cfg.Voice.LanguageCode)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 16, cfg.Bot.MaxConcurrentTurns)

	assert.Error(t, cfg.RequireLLM(), "no key configured")
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "parlami.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  mode: prod
store:
  driver: redis
  redis:
    addr: redis:6379
    ttl: 720h
llm:
  provider: anthropic
  anthropic:
    api_key: sk-file
voice:
  transcriber: gcp
  reply_mode: always
bot:
  max_concurrent_turns: 4
`), 0o644))

	t.Setenv("PARLAMI_BOT_MAX_CONCURRENT_TURNS", "8")
	t.Setenv("PARLAMI_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("PARLAMI_TUTOR_TIMEOUT", "5s")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Log.Mode)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 720*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-file", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, "gcp", cfg.Voice.Transcriber)
	assert.Equal(t, "always", cfg.Voice.ReplyMode)
	assert.Equal(t, 8, cfg.Bot.MaxConcurrentTurns, "env overrides file")
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 5*time.Second, cfg.Tutor.Timeout)
	assert.NoError(t, cfg.RequireLLM())
}

func TestLoad_InvalidValues(t *testing.T) {
	clearProviderEnv(t)
	t.Chdir(t.TempDir())

	tests := []struct {
		env, value string
	}{
		{"PARLAMI_STORE_DRIVER", "postgres"},
		{"PARLAMI_VOICE_REPLY_MODE", "sometimes"},
		{"PARLAMI_LOG_REDACTION", "maybe"},
		{"PARLAMI_BOT_MAX_CONCURRENT_TURNS", "0"},
		{"PARLAMI_LLM_PROVIDER", "cohere"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_DiscoversProviderKey(t *testing.T) {
	clearProviderEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("PARLAMI_LLM_MAX_TOKENS", "120")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gm-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, 120, cfg.LLM.MaxTokens, "tuning survives discovery")
	assert.NoError(t, cfg.RequireLLM())
}

func TestLoad_DiscoveryKeepsProviderSettings(t *testing.T) {
	clearProviderEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("PARLAMI_LLM_OPENROUTER_MODEL", "meta-llama/llama-3.1-8b-instruct")
	t.Setenv("PARLAMI_LLM_OPENROUTER_BASE_URL", "https://proxy.internal/api/v1")
	t.Setenv("PARLAMI_LLM_GEMINI_MODEL", "gemini-pro")
	t.Setenv("PARLAMI_LLM_TIMEOUT", "7s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, "or-key", cfg.LLM.OpenRouter.APIKey)
	assert.Equal(t, "meta-llama/llama-3.1-8b-instruct", cfg.LLM.OpenRouter.Model)
	assert.Equal(t, "https://proxy.internal/api/v1", cfg.LLM.OpenRouter.BaseURL)
	assert.Equal(t, "gemini-pro", cfg.LLM.Gemini.Model)
	assert.Equal(t, 7*time.Second, cfg.LLM.Timeout)
}

func TestLoad_MockProviderNeedsNoKey(t *testing.T) {
	clearProviderEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PARLAMI_LLM_PROVIDER", "mock")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireLLM())
}

func TestLoad_DotEnv(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARLAMI_HTTP_ADDR=127.0.0.1:9999\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PARLAMI_HTTP_ADDR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
}

func TestVoiceOpenAIKeyFallsBackToLLMKey(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.OpenAI.APIKey = "llm"
	assert.Equal(t, "llm", cfg.VoiceOpenAIKey())
	cfg.Voice.OpenAI.APIKey = "voice"
	assert.Equal(t, "voice", cfg.VoiceOpenAIKey())
}
