package cmd

import (
	"os"

	"github.com/samsaffron/term-chat/internal/config"
	"github.com/spf13/cobra"
)

var (
	debugLogPath string
	showStats    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&debugLogPath, "debug-log", "", "Append structured debug logs to this file (overrides debug.log_file)")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Show session statistics (time, tokens, tool calls) on exit")
	AddProviderFlag(rootCmd, &chatProvider)
}

var rootCmd = &cobra.Command{
	Use:   "term-chat",
	Short: "Chat with an AI model inline in your terminal",
	Long: `term-chat streams a conversation with an AI model into your normal
terminal scrollback, with a multi-line prompt pinned below it.

Examples:
  term-chat                             # start a session
  term-chat --provider openai:gpt-4.1   # pick a provider and model
  term-chat history search 'deploy*'    # search past prompts

  term-chat config                      # view configuration
  term-chat config completion zsh       # shell completions`,
	Args:              cobra.NoArgs,
	RunE:              runChat,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config and applies the --provider override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyProviderOverride(cfg, chatProvider); err != nil {
		return nil, err
	}
	if debugLogPath != "" {
		cfg.Debug.LogFile = debugLogPath
	}
	return cfg, nil
}
