package conversation

import "strings"

// Reply is what the machine wants sent back for one turn.
type Reply struct {
	// Messages are sent in order as separate text messages.
	Messages []string
	// Speech is Italian text worth voicing, if any.
	Speech string
	// Silent is set when the input is deliberately ignored.
	Silent bool
}

func say(msgs ...string) Reply {
	return Reply{Messages: msgs}
}

// Text joins the messages with blank lines.
func (r Reply) Text() string {
	return strings.Join(r.Messages, "\n\n")
}
