package conversation

import "strings"

// Kind tags an Input.
type Kind int

const (
	KindText Kind = iota
	KindCommand
)

// Commands understood by the machine.
const (
	CmdStart    = "start"
	CmdPhrases  = "phrases"
	CmdQuiz     = "quiz"
	CmdChat     = "chat"
	CmdProgress = "progress"
	CmdCancel   = "cancel"
	CmdReset    = "reset"
)

// Input is one learner turn, already resolved to text.
type Input struct {
	Kind Kind
	// Command is the lowercase command name without the slash.
	Command string
	Text    string
	// DisplayName is the learner's first name when the transport knows it.
	DisplayName string
	// FromVoice marks text that came from a transcribed voice message.
	FromVoice bool
}

// Text builds a free-text Input.
func Text(s string) Input {
	return Input{Kind: KindText, Text: s}
}

// Command builds a command Input.
func Command(name string) Input {
	return Input{Kind: KindCommand, Command: strings.ToLower(name)}
}

// Parse classifies raw message text. Leading "/" marks a command; a
// "@botname" suffix and any arguments are dropped.
func Parse(raw string) Input {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "/") || len(s) == 1 {
		return Text(raw)
	}
	name := strings.Fields(s[1:])
	if len(name) == 0 {
		return Text(raw)
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return Command(cmd)
}
