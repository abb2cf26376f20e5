package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/parlami/internal/mastery"
)

var progressCmd = &cobra.Command{
	Use:   "progress <user>",
	Short: "Show a learner's level, score and quiz history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false, "warn")
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		userID := args[0]
		s, err := a.Sessions.Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Learner:   %s\n", s.UserID)
		fmt.Fprintf(out, "Level:     %s\n", s.Level)
		fmt.Fprintf(out, "Score:     %d\n", s.Score)
		if next, remaining, ok := mastery.PointsToNext(s.Level, s.Score); ok {
			fmt.Fprintf(out, "Next:      %s in %d points\n", next, remaining)
		} else {
			fmt.Fprintf(out, "Next:      top level reached\n")
		}
		fmt.Fprintf(out, "State:     %s\n", s.State)
		if s.LastInteraction.IsZero() {
			fmt.Fprintf(out, "Last seen: never\n")
		} else {
			fmt.Fprintf(out, "Last seen: %s\n", stamp(s.LastInteraction))
		}

		if a.Events == nil {
			return nil
		}

		stats, err := a.Events.AnswerStats(ctx, userID)
		if err != nil {
			return fmt.Errorf("query answers: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Quiz")
		fmt.Fprintln(out, strings.Repeat("─", 40))
		if stats.Answered == 0 {
			fmt.Fprintln(out, "No answers recorded yet.")
		} else {
			fmt.Fprintf(out, "Answered:  %d\n", stats.Answered)
			fmt.Fprintf(out, "Correct:   %d (%.0f%%)\n", stats.Correct, 100*float64(stats.Correct)/float64(stats.Answered))
			fmt.Fprintf(out, "Last quiz: %s\n", stamp(stats.LastAt))
		}

		history, err := a.Events.LevelHistory(ctx, userID)
		if err != nil {
			return fmt.Errorf("query level history: %w", err)
		}
		if len(history) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Level ups")
			fmt.Fprintln(out, strings.Repeat("─", 40))
			for _, h := range history {
				fmt.Fprintf(out, "%-12s -> %-12s at %d points\n", h.From, h.To, h.Score)
			}
		}
		return nil
	},
}
