package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/samsaffron/term-chat/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyYes   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage prompt history",
	Long: `List, search or clear the prompts you have sent.

Examples:
  term-chat history                   # most recent prompts
  term-chat history search deploy     # substring match
  term-chat history search 'fix*bug'  # glob match on the whole prompt
  term-chat history clear`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent prompts",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search prompts (glob syntax, case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all prompt history (requires confirmation)",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries to show (0 for all)")
	historyClearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "Skip confirmation")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	printEntries(cmd, entries)
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Search(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return fmt.Errorf("failed to search history: %w", err)
	}
	printEntries(cmd, entries)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if !historyYes {
		confirmed := false
		err := huh.NewConfirm().
			Title("Delete all prompt history?").
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(context.WithoutCancel(cmd.Context())); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}

func printEntries(cmd *cobra.Command, entries []history.Entry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history found.")
		return
	}
	now := time.Now()
	for _, e := range entries {
		text := strings.ReplaceAll(e.Text, "\n", " ↵ ")
		fmt.Fprintf(out, "%6d  %-8s %s\n", e.ID, formatAge(now.Sub(e.CreatedAt)), text)
	}
}

// formatAge renders d as a short relative age such as "5m" or "3d".
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
