// Package telegram connects the dispatcher to the Telegram Bot API through
// long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abhisek/parlami/internal/bot"
	"github.com/abhisek/parlami/internal/logger"
)

// maxVoiceBytes matches the Bot API download limit.
const maxVoiceBytes = 20 << 20

// Dispatcher accepts inbound events.
type Dispatcher interface {
	Dispatch(ev bot.Event) error
}

// Options configures a Bot.
type Options struct {
	Token string
	// APIEndpoint overrides the Bot API URL format, mostly for tests.
	APIEndpoint string
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int
}

// Bot is a Telegram transport. Learner ids are chat ids.
type Bot struct {
	api     *tgbotapi.BotAPI
	client  *http.Client
	fileURL func(fileID string) (string, error)
	timeout int
	log     *logger.Logger
}

// New authenticates against the Bot API.
func New(opts Options, log *logger.Logger) (*Bot, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram: token is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	endpoint := opts.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(opts.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = 60
	}
	b := &Bot{
		api:     api,
		client:  &http.Client{Timeout: 60 * time.Second},
		timeout: timeout,
		log:     log.With("component", "telegram", "bot", api.Self.UserName),
	}
	b.fileURL = api.GetFileDirectURL
	return b, nil
}

// Run polls for updates and hands them to d until ctx is done.
func (b *Bot) Run(ctx context.Context, d Dispatcher) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)
	b.log.Info("polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			ev, ok := b.toEvent(update.Message)
			if !ok {
				continue
			}
			if err := d.Dispatch(ev); err != nil {
				b.log.Warn("dispatch rejected update", "user_id", ev.UserID, "error", err)
			}
		}
	}
}

// toEvent converts a Telegram message without any network calls. Voice
// audio is fetched later by the dispatcher through Event.FetchAudio.
// Messages with neither text nor voice are dropped.
func (b *Bot) toEvent(msg *tgbotapi.Message) (bot.Event, bool) {
	if msg.Chat == nil {
		return bot.Event{}, false
	}
	ev := bot.Event{
		ID:         strconv.FormatInt(msg.Chat.ID, 10) + ":" + strconv.Itoa(msg.MessageID),
		UserID:     strconv.FormatInt(msg.Chat.ID, 10),
		ReceivedAt: msg.Time(),
	}
	if msg.From != nil {
		ev.DisplayName = msg.From.FirstName
	}

	switch {
	case msg.Voice != nil:
		ev.Kind = bot.KindVoice
		ev.MIMEType = msg.Voice.MimeType
		if ev.MIMEType == "" {
			ev.MIMEType = "audio/ogg"
		}
		fileID := msg.Voice.FileID
		ev.FetchAudio = func(ctx context.Context) ([]byte, error) {
			return b.download(ctx, fileID)
		}
	case msg.IsCommand():
		ev.Kind = bot.KindCommand
		ev.Payload = msg.Command()
	case strings.TrimSpace(msg.Text) != "":
		ev.Kind = bot.KindText
		ev.Payload = msg.Text
	default:
		return bot.Event{}, false
	}
	return ev, true
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.fileURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes))
}

func chatID(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q", userID)
	}
	return id, nil
}

// SendText sends a plain text message.
func (b *Bot) SendText(ctx context.Context, userID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := chatID(userID)
	if err != nil {
		return err
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// SendVoice sends OGG/Opus audio as a voice note.
func (b *Bot) SendVoice(ctx context.Context, userID string, audio []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := chatID(userID)
	if err != nil {
		return err
	}
	v := tgbotapi.NewVoice(id, tgbotapi.FileBytes{Name: "reply.ogg", Bytes: audio})
	if _, err := b.api.Send(v); err != nil {
		return fmt.Errorf("telegram: send voice: %w", err)
	}
	return nil
}
