package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/database"
	internallog "github.com/urlport/urlport/internal/log"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [project-dir]",
		Short: "List recorded migration runs for a project",
		Long: `History lists the migration runs recorded for a project, newest
first, with the run id needed by "urlport rollback --run-id".

Examples:
  # List runs for the current directory
  urlport history

  # List runs for another project
  urlport history /var/www/site`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 0, "Show at most this many runs (0 = all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	logger := internallog.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-only access

	runs, err := db.ListRuns(cmd.Context(), absRoot)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No recorded migrations for %s\n", absRoot)
		return nil
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	out := cmd.OutOrStdout()
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s\n", run.CreatedAt.Local().Format(time.DateTime), run.RunID)
		fmt.Fprintf(out, "    format:  %s\n", run.ReplacementFormat)
		fmt.Fprintf(out, "    applied: %d change(s) in %d file(s)\n",
			run.ChangesApplied, run.FilesModified)
		if run.ManifestPath != "" {
			fmt.Fprintf(out, "    backup:  %s\n", run.ManifestPath)
		}
		fmt.Fprintln(out)
	}
	return nil
}
