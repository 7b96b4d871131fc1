package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/medetech-go/internal/app"
	"github.com/doeshing/medetech-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/medetech-go/internal/ports"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the scan history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryShowCommand(container),
		newHistoryDeleteCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.Context(), cmd.OutOrStdout(), container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show (0 shows all)")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(container)
			if err != nil {
				return err
			}
			entry, ok := store.Get(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("history entry %s not found", args[0])
			}
			helpers.RenderHistoryEntry(cmd.OutOrStdout(), entry, time.Now())
			return nil
		},
	}
}

// newHistoryDeleteCommand creates the 'history delete' subcommand
func newHistoryDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a single history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(container)
			if err != nil {
				return err
			}
			store.Delete(cmd.Context(), args[0])
			return nil
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(container)
			if err != nil {
				return err
			}
			if !yes {
				reader := bufio.NewReader(cmd.InOrStdin())
				if !helpers.PromptForConfirmation(cmd.OutOrStdout(), reader, "Delete all scan history?") {
					fmt.Fprintln(cmd.OutOrStdout(), MsgClearCancelled)
					return nil
				}
			}
			store.Clear(cmd.Context())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path|->",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHistory(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show confidence distribution and most identified medicines",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(container)
			if err != nil {
				return err
			}
			entries := store.List(cmd.Context())
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoHistoryRecorded)
				return nil
			}
			helpers.RenderHistoryStatistics(cmd.OutOrStdout(), helpers.AnalyzeHistory(entries, top))
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", DefaultTopMedicines, "Number of medicines to rank")
	return cmd
}

// listHistoryEntries prints the most recent scans, newest first
func listHistoryEntries(ctx context.Context, out io.Writer, container *app.Container, limit int) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	entries := store.List(ctx)
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	helpers.RenderHistoryList(out, entries, time.Now())
	return nil
}

// exportHistory writes the history as JSON to a file or stdout
func exportHistory(ctx context.Context, stdout io.Writer, container *app.Container, path string) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}
	if path == "-" {
		return store.Export(ctx, stdout)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, ExportFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}
	if err := store.Export(ctx, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}
	return f.Close()
}

// historyStore returns the container's history store or an error when it is missing
func historyStore(container *app.Container) (ports.HistoryRepository, error) {
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return container.HistoryStore, nil
}
