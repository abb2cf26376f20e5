// Package voice converts learner voice messages to text and tutor replies
// to audio.
package voice

import (
	"context"
	"fmt"
	"strings"
)

// Transcriber turns recorded speech into text.
type Transcriber interface {
	// Transcribe returns the spoken text. Any failure, including audio with
	// no recognizable speech, is a *TranscriptionError.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Synthesizer turns text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

// TranscriptionError reports audio that could not be turned into text.
type TranscriptionError struct {
	// Unintelligible is set when the service answered but heard nothing.
	Unintelligible bool
	Err            error
}

func (e *TranscriptionError) Error() string {
	if e.Unintelligible {
		return "transcription: no speech recognized"
	}
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// SynthesisError reports a failed text-to-speech call.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// ItalianLanguageCode is the BCP-47 code used for synthesis and recognition.
const ItalianLanguageCode = "it-IT"

// fileName picks a name whose extension tells speech APIs the container.
func fileName(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "ogg"), strings.Contains(m, "opus"):
		return "voice.ogg"
	case strings.Contains(m, "mpeg"), strings.Contains(m, "mp3"):
		return "voice.mp3"
	case strings.Contains(m, "wav"):
		return "voice.wav"
	case strings.Contains(m, "webm"):
		return "voice.webm"
	case strings.Contains(m, "mp4"), strings.Contains(m, "m4a"):
		return "voice.m4a"
	default:
		return "voice.ogg"
	}
}
