package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/database"
	"github.com/urlport/urlport/internal/engine"
	internallog "github.com/urlport/urlport/internal/log"
	"github.com/urlport/urlport/internal/model"
)

// NewRollbackCmd creates the rollback command.
func NewRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback [project-dir]",
		Short: "Restore files from a migration backup",
		Long: `Rollback restores files to their pre-migration bytes from a run's
backup archive. Every restored file is re-verified against the
manifest checksum; a corrupt archive entry fails that file only.

Without flags it rolls back the most recent run recorded for the
project. Use --run-id or --manifest to pick another run, and --files
to restore only specific files.

Examples:
  # Roll back the most recent migration of the current directory
  urlport rollback

  # Roll back a specific run
  urlport rollback --run-id 2f1c9d1e-...

  # Restore two files only
  urlport rollback --files includes/header.php --files index.php`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRollbackCmd,
	}

	cmd.Flags().String("run-id", "", "Run id whose backup to restore")
	cmd.Flags().String("manifest", "", "Path to a backup manifest file")
	cmd.Flags().StringSlice("files", nil,
		"Restore only these files, relative to the project root (repeatable)")
	cmd.Flags().String("backup-dir", "",
		"Directory holding backup archives (default: XDG data directory)")

	return cmd
}

// runRollbackCmd executes the rollback command.
func runRollbackCmd(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	cfg.Root = absRoot
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = config.XDGDataDir()

	cfg.BackupDir, err = cmd.Flags().GetString("backup-dir")
	if err != nil {
		return err
	}

	logger := internallog.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	manifestPath, err := resolveManifestPath(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	manifest, err := model.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest %s: %w", manifestPath, err)
	}

	files, err := cmd.Flags().GetStringSlice("files")
	if err != nil {
		return err
	}

	eng := engine.New(cfg, logger)

	var result *model.RollbackResult
	if len(files) > 0 {
		result, err = eng.RollbackSelective(manifest, files)
	} else {
		result, err = eng.RollbackFull(manifest)
	}
	if err != nil {
		return err
	}

	printRollbackResult(cmd, result)
	if len(result.Failed) > 0 {
		return fmt.Errorf("rollback incomplete: %d file(s) failed", len(result.Failed))
	}
	return nil
}

// resolveManifestPath picks the manifest to restore from, in order of
// precedence: --manifest, --run-id, then the most recent run recorded
// for the project.
func resolveManifestPath(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (string, error) {
	manifestPath, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return "", err
	}
	if manifestPath != "" {
		return manifestPath, nil
	}

	runID, err := cmd.Flags().GetString("run-id")
	if err != nil {
		return "", err
	}
	if runID != "" {
		logger := slog.Default()
		return engine.New(cfg, logger).ManifestPath(runID), nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-only access

	latest, err := db.LatestRun(ctx, cfg.Root)
	if err != nil {
		if errors.Is(err, database.ErrNoRuns) {
			return "", fmt.Errorf("no recorded migration for %s (use --manifest or --run-id)", cfg.Root)
		}
		return "", err
	}
	return latest.ManifestPath, nil
}

// printRollbackResult summarizes the rollback on stdout.
func printRollbackResult(cmd *cobra.Command, result *model.RollbackResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Restored %d file(s).\n", len(result.Restored))
	for _, f := range result.Restored {
		fmt.Fprintf(out, "  restored: %s\n", f)
	}
	for _, f := range result.Skipped {
		fmt.Fprintf(out, "  skipped:  %s\n", f)
	}
	for _, f := range result.Failed {
		fmt.Fprintf(out, "  FAILED:   %s (%s)\n", f.Path, f.Reason)
	}
}
