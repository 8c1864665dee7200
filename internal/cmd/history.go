package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/commitwise/commitwise/internal/pkg/history"
)

// DefaultHistoryLimit is the default number of history entries to display.
const DefaultHistoryLimit = 20

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View committed message history",
		Long: `View the commit messages commitwise has committed, newest first.

Examples:
  commitwise history           # Show last 20 entries
  commitwise history --limit 5 # Show last 5 entries
  commitwise history clear     # Clear all history`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "l", DefaultHistoryLimit, "Number of entries to display")
	historyCmd.AddCommand(newHistoryClearCmd())

	return historyCmd
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !d.cfg.HistoryEnabled {
		fmt.Fprintln(out, "History is disabled. Enable it with: commitwise config set historyEnabled true")
		return nil
	}

	entries, err := d.history.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries found.")
		return nil
	}

	for i, entry := range entries {
		printHistoryEntry(out, entry, i+1)
	}
	return nil
}

func printHistoryEntry(w io.Writer, entry *history.Entry, index int) {
	fmt.Fprintf(w, "[%d] %s (%s)\n", index, entry.Timestamp.Format(time.RFC3339), entry.Source)
	fmt.Fprintf(w, "    %s\n", entry.Message)
	if entry.Provider != "" {
		fmt.Fprintf(w, "    via %s", entry.Provider)
		if entry.Model != "" {
			fmt.Fprintf(w, " (%s)", entry.Model)
		}
		fmt.Fprintln(w)
	}
	if entry.DiffSummary != "" {
		fmt.Fprintf(w, "    %s\n", entry.DiffSummary)
	}
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd)
			if err != nil {
				return err
			}
			if err := d.history.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}
