package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <user>",
	Short: "Reset a learner to level basic with score 0",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keepHistory, _ := cmd.Flags().GetBool("keep-history")

		a, err := openApp(cmd, false, "warn")
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		userID := args[0]
		if err := a.Sessions.Delete(ctx, userID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if a.Events != nil && !keepHistory {
			if err := a.Events.DeleteUser(ctx, userID); err != nil {
				return fmt.Errorf("delete history: %w", err)
			}
		}
		a.Log.Info("learner reset", "user_id", userID, "keep_history", keepHistory)
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s.\n", userID)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("keep-history", false, "Keep quiz and level history")
}
