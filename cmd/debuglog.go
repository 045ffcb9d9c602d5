package cmd

import (
	"errors"
	"fmt"

	"github.com/samsaffron/term-chat/internal/debuglog"
	"github.com/samsaffron/term-chat/internal/ui"
	"github.com/spf13/cobra"
)

var debugLogTail int

var debugLogCmd = &cobra.Command{
	Use:   "debug-log",
	Short: "Show the structured debug log",
	Long: `Print the debug log written by chat sessions.

Logging is off unless debug.log_file is set or --debug-log is passed.

Examples:
  term-chat --debug-log /tmp/chat.jsonl     # record a session
  term-chat debug-log --debug-log /tmp/chat.jsonl -n 50`,
	Args: cobra.NoArgs,
	RunE: runDebugLog,
}

func init() {
	debugLogCmd.Flags().IntVarP(&debugLogTail, "tail", "n", 100, "Show only the last N entries (0 for all)")
	rootCmd.AddCommand(debugLogCmd)
}

func runDebugLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Debug.LogFile == "" {
		return errors.New("no debug log configured; set debug.log_file or pass --debug-log")
	}
	entries, err := debuglog.ReadFile(cfg.Debug.LogFile, debugLogTail)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Debug.LogFile, err)
	}
	ui.InitTheme(cfg.Theme.UI())
	debuglog.FormatEntries(cmd.OutOrStdout(), entries, ui.NewStyles(cmd.OutOrStdout()))
	return nil
}
