package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/parlami/internal/content"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect and validate content banks",
}

var contentValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a content bank file",
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, src, err := loadBank(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: ok\n", src)
		for _, lvl := range content.Levels {
			lc := bank.Levels[lvl]
			fmt.Fprintf(out, "  %-12s  %3d phrases  %3d questions\n", lvl, len(lc.Phrases), len(lc.Questions))
		}
		return nil
	},
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the phrases and quiz questions of a level",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("level")
		level, err := content.ParseLevel(raw)
		if err != nil {
			return err
		}
		bank, _, err := loadBank(cmd)
		if err != nil {
			return err
		}

		repo := content.NewRepository(bank, nil)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Phrases (%s)\n", level)
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, p := range repo.Phrases(level) {
			fmt.Fprintf(out, "%-28s  %s\n", p.English, p.Italian)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Questions (%s)\n", level)
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, q := range repo.Questions(level) {
			fmt.Fprintf(out, "%s\n  -> %s\n", q.Question, q.Answer)
		}
		return nil
	},
}

// loadBank reads --file, else content.path from config, else the built-in
// bank.
func loadBank(cmd *cobra.Command) (*content.Bank, string, error) {
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		cfg, _, err := loadConfig(cmd, "warn")
		if err != nil {
			return nil, "", err
		}
		file = cfg.Content.Path
	}
	src := file
	if src == "" {
		src = "built-in bank"
	}
	bank, err := content.LoadFile(file)
	if err != nil {
		return nil, src, fmt.Errorf("%s: %w", src, err)
	}
	return bank, src, nil
}

func init() {
	contentCmd.PersistentFlags().StringP("file", "f", "", "Content bank file (YAML or JSON)")
	contentListCmd.Flags().StringP("level", "l", "basic", "Level to list: basic, intermediate or advanced")

	contentCmd.AddCommand(contentValidateCmd)
	contentCmd.AddCommand(contentListCmd)
}
