// Package config loads parlami's settings from parlami.yaml, .env and
// PARLAMI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/parlami/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. PARLAMI_STORE_DRIVER.
const EnvPrefix = "PARLAMI"

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Content  ContentConfig  `mapstructure:"content"`
	Tutor    TutorConfig    `mapstructure:"tutor"`
	LLM      llm.Config     `mapstructure:"llm"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode" validate:"oneof=dev prod"`
	Level string `mapstructure:"level"`
	// Redaction is "on" or "off"; on hashes learner ids in logs.
	Redaction string `mapstructure:"redaction" validate:"oneof=on off"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver" validate:"oneof=memory sqlite redis"`
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gte=0"`
	LockTTL   time.Duration `mapstructure:"lock_ttl" validate:"gte=0"`
	LockWait  time.Duration `mapstructure:"lock_wait" validate:"gte=0"`
	Enabled   bool          `mapstructure:"-"`
}

type ContentConfig struct {
	// Path to a YAML or JSON content bank. Empty uses the built-in bank.
	Path string `mapstructure:"path"`
}

type TutorConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

type VoiceConfig struct {
	Transcriber       string            `mapstructure:"transcriber" validate:"oneof=openai gcp none"`
	Synthesizer       string            `mapstructure:"synthesizer" validate:"oneof=openai none"`
	ReplyMode         string            `mapstructure:"reply_mode" validate:"oneof=off voice always"`
	LanguageCode      string            `mapstructure:"language_code" validate:"required"`
	TranscribeTimeout time.Duration     `mapstructure:"transcribe_timeout" validate:"gt=0"`
	SynthesizeTimeout time.Duration     `mapstructure:"synthesize_timeout" validate:"gt=0"`
	OpenAI            VoiceOpenAIConfig `mapstructure:"openai"`
}

// VoiceOpenAIConfig falls back to the LLM OpenAI key when APIKey is empty.
type VoiceOpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	SpeechModel        string `mapstructure:"speech_model"`
	Voice              string `mapstructure:"voice"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type HTTPConfig struct {
	// Addr is empty to disable the HTTP API.
	Addr string `mapstructure:"addr"`
}

type BotConfig struct {
	MaxConcurrentTurns int           `mapstructure:"max_concurrent_turns" validate:"gte=1"`
	SendTimeout        time.Duration `mapstructure:"send_timeout" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	l := llm.DefaultConfig()

	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "")
	v.SetDefault("log.redaction", "on")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "parlami:session:")
	v.SetDefault("store.redis.ttl", 0)
	v.SetDefault("store.redis.lock_ttl", 2*time.Minute)
	v.SetDefault("store.redis.lock_wait", time.Minute)

	v.SetDefault("content.path", "")

	v.SetDefault("tutor.timeout", 20*time.Second)
	v.SetDefault("tutor.temperature", 0.7)

	v.SetDefault("llm.provider", l.Provider)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", l.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", l.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", l.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", l.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", l.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", l.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", l.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", l.Retry.Multiplier)
	v.SetDefault("llm.timeout", l.Timeout)
	v.SetDefault("llm.max_tokens", l.MaxTokens)

	v.SetDefault("voice.transcriber", "none")
	v.SetDefault("voice.synthesizer", "none")
	v.SetDefault("voice.reply_mode", "voice")
	v.SetDefault("voice.language_code", "it-IT")
	v.SetDefault("voice.transcribe_timeout", 30*time.Second)
	v.SetDefault("voice.synthesize_timeout", 30*time.Second)
	v.SetDefault("voice.openai.api_key", "")
	v.SetDefault("voice.openai.base_url", "")
	v.SetDefault("voice.openai.transcription_model", "")
	v.SetDefault("voice.openai.speech_model", "")
	v.SetDefault("voice.openai.voice", "")

	v.SetDefault("telegram.token", "")
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("bot.max_concurrent_turns", 16)
	v.SetDefault("bot.send_timeout", 15*time.Second)
}

// Load reads configuration. file names an explicit config file; when empty,
// parlami.yaml is looked up in the working directory and
// $HOME/.config/parlami, and its absence is not an error.
func Load(file string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("parlami")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/parlami")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Redis.Enabled = cfg.Store.Driver == "redis"
	cfg.applyLLMDiscovery()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLLMDiscovery falls back to the providers' standard key variables
// (OPENAI_API_KEY and friends) when the configured provider has no key.
// Everything else in the llm section is kept.
func (c *Config) applyLLMDiscovery() {
	if c.LLM.Validate() == nil {
		return
	}
	if found, ok := llm.DiscoverConfig(); ok {
		c.LLM = c.LLM.WithKeyFrom(found)
	}
}

// Validate checks field constraints. Provider keys are checked separately
// by RequireLLM so that offline commands work without them.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireLLM reports whether a usable LLM provider is configured.
func (c *Config) RequireLLM() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("%w (or set PARLAMI_LLM_PROVIDER=mock for offline use)", err)
	}
	return nil
}

// VoiceOpenAIKey returns the key for the OpenAI speech endpoints.
func (c *Config) VoiceOpenAIKey() string {
	if c.Voice.OpenAI.APIKey != "" {
		return c.Voice.OpenAI.APIKey
	}
	return c.LLM.OpenAI.APIKey
}
