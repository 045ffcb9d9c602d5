package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/samsaffron/term-chat/internal/chat"
	"github.com/samsaffron/term-chat/internal/debuglog"
	"github.com/samsaffron/term-chat/internal/history"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/signal"
	"github.com/samsaffron/term-chat/internal/terminal"
	"github.com/samsaffron/term-chat/internal/ui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session (default)",
	Long: `Start an interactive chat session in the current terminal.

Examples:
  term-chat chat
  term-chat chat --provider anthropic:claude-sonnet-4-5-thinking

Keyboard shortcuts:
  Enter          - Send message
  Ctrl+J         - Insert newline
  Up/Down        - Move between lines, then through history
  Tab            - Complete a slash command or @file
  Ctrl+R         - Search history in a picker
  Ctrl+G         - Edit the message in $EDITOR
  Ctrl+V         - Paste from the clipboard
  Ctrl+L         - Redraw the screen
  Esc            - Stop streaming
  Ctrl+C         - Stop streaming, clear the prompt, or quit
  Ctrl+D         - Quit on an empty prompt

Slash commands:
  /help          - Show commands and keys
  /attach FILE   - Attach files to the next message
  /run CMD       - Run a command and keep its output
  /model NAME    - Switch provider or model
  /clear         - Start a new conversation
  /quit          - Exit

Lines starting with ! run in your shell with the terminal handed over.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := debuglog.Open(cfg.Debug.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ui.InitTheme(cfg.Theme.UI())

	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.History)
	if err != nil {
		// Non-fatal: keep history for this session only
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history disabled: %v\n", err)
		store = history.NewMemoryStore(cfg.History.MaxEntries)
	}
	defer store.Close()

	if !terminal.NewProbe(os.Stdin).IsTerminal() || !terminal.NewProbe(os.Stdout).IsTerminal() {
		return errors.New("term-chat needs an interactive terminal")
	}

	tty, row, err := chat.OpenTTY(os.Stdin, os.Stdout, logger)
	if err != nil {
		return err
	}
	defer tty.Close()

	cwd, _ := os.Getwd()
	session := chat.New(chat.Options{
		Config:   cfg,
		Provider: provider,
		Term:     terminal.NewANSI(os.Stdout, tty.Probe().Size, logger),
		Host:     tty,
		StartRow: row,
		Store:    store,
		Styles:   ui.NewStyles(os.Stdout),
		Logger:   logger,
		CWD:      cwd,
		Resize:   terminal.WatchResize(ctx),
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	})
	logger.Info("session start", "provider", provider.Name(), "model", provider.Model(), "row", row)

	err = session.Run(ctx)
	tty.Close()
	if showStats {
		fmt.Fprintln(cmd.ErrOrStderr(), session.Stats().Render())
	}
	return err
}
