package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/parlami/internal/app"
	"github.com/abhisek/parlami/internal/config"
	"github.com/abhisek/parlami/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "parlami",
	Short: "Italian conversation tutor bot",
	Long:  "Parlami is a conversational Italian tutor: phrase lookup, leveled quizzes and free chat, on Telegram, HTTP or your terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./parlami.yaml if present)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides store.path and PARLAMI_DB)")
	addChatFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the --db flag. Empty defers to store.path, then
// PARLAMI_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("db")
	return p
}

// loadConfig reads configuration and builds the logger. quietLevel is used
// when log.level is unset, so terminal commands are not drowned in debug
// output.
func loadConfig(cmd *cobra.Command, quietLevel string) (*config.Config, *logger.Logger, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if level == "" {
		level = quietLevel
	}
	log, err := logger.New(logger.Options{
		Mode:   cfg.Log.Mode,
		Level:  level,
		Redact: cfg.Log.Redaction == "on",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// openApp loads configuration and wires the application.
func openApp(cmd *cobra.Command, conversation bool, quietLevel string) (*app.App, error) {
	cfg, log, err := loadConfig(cmd, quietLevel)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), cfg, log, app.Options{
		DBPath:       resolveDBPath(cmd),
		Conversation: conversation,
	})
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Log.Warn("close failed", "error", err)
	}
	a.Log.Sync()
}
