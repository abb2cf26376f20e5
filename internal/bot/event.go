// Package bot turns inbound transport events into conversation turns and
// delivers the replies.
package bot

import (
	"context"
	"time"
)

// Kind classifies an inbound Event.
type Kind int

const (
	KindText Kind = iota
	KindCommand
	KindVoice
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindVoice:
		return "voice"
	default:
		return "text"
	}
}

// Event is one inbound learner message, as received by a transport.
type Event struct {
	// ID is assigned by the dispatcher when empty.
	ID          string
	UserID      string
	DisplayName string
	Kind        Kind
	// Payload is the message text, or the command with or without its slash.
	Payload string
	// Audio and MIMEType carry a voice message.
	Audio    []byte
	MIMEType string
	// FetchAudio loads Audio when the transport defers the download. It runs
	// on the learner's own turn, never on the transport's receive loop.
	FetchAudio func(ctx context.Context) ([]byte, error)
	ReceivedAt time.Time
}

// Transport delivers replies back to a learner.
type Transport interface {
	SendText(ctx context.Context, userID, text string) error
	SendVoice(ctx context.Context, userID string, audio []byte) error
}

// Outbound is everything produced for one Event.
type Outbound struct {
	TurnID   string
	UserID   string
	Messages []string
	// Voice is synthesized audio of the reply's Italian text, if any.
	Voice []byte
	// Transcript is the recognized text of a voice Event.
	Transcript string
	Silent     bool
}

// ReplyMode decides when replies are also voiced.
type ReplyMode string

const (
	ReplyModeOff ReplyMode = "off"
	// ReplyModeVoice voices replies to voice messages only.
	ReplyModeVoice  ReplyMode = "voice"
	ReplyModeAlways ReplyMode = "always"
)
