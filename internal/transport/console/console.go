// Package console runs a single-learner conversation on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/parlami/internal/bot"
)

// Processor handles one event synchronously.
type Processor interface {
	Process(ctx context.Context, ev bot.Event) (bot.Outbound, error)
}

// Console reads learner lines from in and prints styled replies to out.
type Console struct {
	processor Processor
	in        io.Reader
	out       io.Writer
	userID    string
	name      string
}

// New creates a Console for one learner.
func New(p Processor, in io.Reader, out io.Writer, userID, name string) *Console {
	return &Console{processor: p, in: in, out: out, userID: userID, name: name}
}

// Run loops until in is exhausted, the learner types "/quit" or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, titleStyle.Render("Parlami 🇮🇹"))
	fmt.Fprintln(c.out, hintStyle.Render("Type /start to begin, /quit to leave."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, promptStyle.Render(c.name+"> "))
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			fmt.Fprintln(c.out, hintStyle.Render("Arrivederci!"))
			return nil
		}

		out, err := c.processor.Process(ctx, bot.Event{
			UserID:      c.userID,
			DisplayName: c.name,
			Kind:        bot.KindText,
			Payload:     line,
		})
		c.render(out, err)
	}
}

func (c *Console) render(out bot.Outbound, err error) {
	if err != nil && len(out.Messages) == 0 {
		fmt.Fprintln(c.out, errorStyle.Render("error: "+err.Error()))
		return
	}
	if out.Silent {
		fmt.Fprintln(c.out, hintStyle.Render("(no reply; try /phrases, /quiz or /chat)"))
		return
	}
	for _, msg := range out.Messages {
		fmt.Fprintln(c.out, replyStyle.Render(msg))
	}
}
