package console

import (
	"charm.land/lipgloss/v2"
)

// Palette, Italian flag greens and reds on a dark terminal.
var (
	Primary = lipgloss.Color("#16A34A") // Verde
	Accent  = lipgloss.Color("#DC2626") // Rosso
	Text    = lipgloss.Color("#F8FAFC")
	TextDim = lipgloss.Color("#94A3B8")
	Border  = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	hintStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	replyStyle = lipgloss.NewStyle().
			Foreground(Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(Accent)
)
