package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/parlami/internal/transport/console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Practice Italian in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func addChatFlags(c *cobra.Command) {
	c.Flags().StringP("user", "u", "local", "Learner id to practice as")
	c.Flags().String("name", "", "Display name used in greetings (default: $USER)")
}

func init() {
	addChatFlags(chatCmd)
}

// runChat opens a console conversation. It backs both "parlami chat" and
// the bare "parlami" command.
func runChat(cmd *cobra.Command) error {
	userID, _ := cmd.Flags().GetString("user")
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = userID
	}

	a, err := openApp(cmd, true, "warn")
	if err != nil {
		return err
	}
	defer closeApp(a)

	return console.New(a.Dispatcher(nil), cmd.InOrStdin(), cmd.OutOrStdout(), userID, name).Run(cmd.Context())
}
