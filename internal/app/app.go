// Package app assembles parlami's components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/parlami/internal/bot"
	"github.com/abhisek/parlami/internal/config"
	"github.com/abhisek/parlami/internal/content"
	"github.com/abhisek/parlami/internal/conversation"
	"github.com/abhisek/parlami/internal/llm"
	"github.com/abhisek/parlami/internal/logger"
	"github.com/abhisek/parlami/internal/session"
	"github.com/abhisek/parlami/internal/store"
	"github.com/abhisek/parlami/internal/tutor"
	"github.com/abhisek/parlami/internal/voice"
)

// Options selects what New builds.
type Options struct {
	// DBPath overrides store.path.
	DBPath string
	// Conversation builds the engine, tutor and voice collaborators.
	// Operator commands leave it off so they need no provider keys.
	Conversation bool
}

// App holds the wired components. Fields that were not requested are nil.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Bank     *content.Bank
	Sessions session.Store
	// DB and Events are nil with the memory driver.
	DB     *store.Store
	Events *store.EventLog

	Engine      *conversation.Engine
	Transcriber voice.Transcriber
	Synthesizer voice.Synthesizer

	// Checks are run by the HTTP health endpoint.
	Checks map[string]func(ctx context.Context) error

	closers []func() error
}

// New builds an App. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (_ *App, err error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg, Log: log, Checks: map[string]func(context.Context) error{}}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	bank, err := content.LoadFile(cfg.Content.Path)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	a.Bank = bank

	if err := a.openStores(ctx, opts.DBPath); err != nil {
		return nil, err
	}
	if opts.Conversation {
		if err := a.buildConversation(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context, dbPath string) error {
	cfg := a.Config.Store
	if cfg.Driver == "memory" {
		a.Sessions = session.NewMemoryStore()
		return nil
	}

	// SQLite always holds the event log; with the redis driver it does not
	// hold sessions.
	path := dbPath
	if path == "" {
		path = cfg.Path
	}
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("prepare database directory: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.DB = st
	a.Events = st.EventRepo()
	a.Sessions = st.Sessions()
	a.closers = append(a.closers, st.Close)
	a.Checks["sqlite"] = st.Ping
	a.Log.Debug("opened database", "path", path)

	if cfg.Driver == "redis" {
		rs, err := store.OpenRedis(ctx, store.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
			LockTTL:   cfg.Redis.LockTTL,
			LockWait:  cfg.Redis.LockWait,
		})
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		a.Sessions = rs
		a.closers = append(a.closers, rs.Close)
		a.Checks["redis"] = rs.Ping
	}
	return nil
}

func (a *App) buildConversation(ctx context.Context) error {
	cfg := a.Config
	if err := cfg.RequireLLM(); err != nil {
		return err
	}

	// A nil *EventLog must not become a non-nil interface.
	var llmEvents store.EventRepo
	var recorder conversation.EventRecorder
	if a.Events != nil {
		llmEvents = a.Events
		recorder = a.Events
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, llmEvents, a.Log)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	orch := tutor.New(provider, tutor.Options{
		Timeout:     cfg.Tutor.Timeout,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.Tutor.Temperature,
	}, a.Log)

	repo := content.NewRepository(a.Bank, nil)
	machine := conversation.NewMachine(repo, orch, recorder, a.Log)
	a.Engine = conversation.NewEngine(a.Sessions, machine, a.Log)

	return a.buildVoice(ctx)
}

func (a *App) buildVoice(ctx context.Context) error {
	vc := a.Config.Voice
	oa := voice.OpenAIConfig{
		APIKey:             a.Config.VoiceOpenAIKey(),
		BaseURL:            vc.OpenAI.BaseURL,
		TranscriptionModel: vc.OpenAI.TranscriptionModel,
		SpeechModel:        vc.OpenAI.SpeechModel,
		Voice:              vc.OpenAI.Voice,
	}

	switch vc.Transcriber {
	case "openai":
		t, err := voice.NewOpenAITranscriber(oa)
		if err != nil {
			return fmt.Errorf("voice transcriber: %w", err)
		}
		a.Transcriber = t
	case "gcp":
		t, err := voice.NewGCPTranscriber(ctx, vc.LanguageCode)
		if err != nil {
			return fmt.Errorf("voice transcriber: %w", err)
		}
		a.Transcriber = t
		a.closers = append(a.closers, t.Close)
	}

	if vc.Synthesizer == "openai" {
		s, err := voice.NewOpenAISynthesizer(oa)
		if err != nil {
			return fmt.Errorf("voice synthesizer: %w", err)
		}
		a.Synthesizer = s
	}
	return nil
}

// Dispatcher creates a dispatcher over the engine that replies through t.
// t may be nil for synchronous use.
func (a *App) Dispatcher(t bot.Transport) *bot.Dispatcher {
	return bot.NewDispatcher(bot.Deps{
		Turner:      a.Engine,
		Transcriber: a.Transcriber,
		Synthesizer: a.Synthesizer,
		Transport:   t,
	}, bot.Options{
		MaxConcurrentTurns: a.Config.Bot.MaxConcurrentTurns,
		ReplyMode:          bot.ReplyMode(a.Config.Voice.ReplyMode),
		TranscribeTimeout:  a.Config.Voice.TranscribeTimeout,
		SynthesizeTimeout:  a.Config.Voice.SynthesizeTimeout,
		SendTimeout:        a.Config.Bot.SendTimeout,
	}, a.Log)
}

// Close releases everything New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
