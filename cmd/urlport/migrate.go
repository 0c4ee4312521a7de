package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/database"
	"github.com/urlport/urlport/internal/engine"
	internallog "github.com/urlport/urlport/internal/log"
	"github.com/urlport/urlport/internal/model"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [project-dir]",
		Short: "Rewrite hardcoded internal URLs to dynamic expressions",
		Long: `Migrate runs the full pipeline: scan and classify every URL, plan the
replacements, verify the plan with an independent second pass, archive
every affected file into a checksummed backup, and only then rewrite
the files in place.

If the two analysis passes disagree on a single candidate, nothing is
written. If any file's backup cannot be verified, nothing is written.
Every run gets an id; "urlport rollback" restores the most recent one.

Examples:
  # Migrate example.com URLs in the current directory
  urlport migrate -d example.com

  # Preview without writing anything
  urlport migrate -d example.com --dry-run

  # Migrate without the confirmation prompt, e.g. in scripts
  urlport migrate -d example.com -y

  # Use a function-call replacement instead of auto-detection
  urlport migrate -d example.com -f function:safe_url`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMigrateCmd,
	}

	addAnalysisFlags(cmd)
	cmd.Flags().Bool("dry-run", false,
		"Analyze and verify only; write nothing")
	cmd.Flags().BoolP("yes", "y", false,
		"Skip the confirmation prompt")
	cmd.Flags().String("backup-dir", "",
		"Directory for backup archives (default: XDG data directory)")

	return cmd
}

// runMigrateCmd executes the migrate command.
func runMigrateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	cfg.BackupDir, err = cmd.Flags().GetString("backup-dir")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	assumeYes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	logger := internallog.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runMigrate(ctx, cmd, cfg, logger, dryRun, assumeYes)
}

// runMigrate executes the migration pipeline.
func runMigrate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, dryRun, assumeYes bool) error {
	eng := engine.New(cfg, logger)

	run := &engine.Run{
		ID:     uuid.NewString(),
		DryRun: dryRun,
		Report: &model.MigrationReport{
			Root: cfg.Root,
		},
	}
	run.Report.RunID = run.ID

	// Phase one: analyze and verify. Nothing is written yet, so the
	// confirmation prompt can sit between the phases and show the
	// user exactly what would change.
	analyze := engine.NewPipeline(engine.WithPipelineLogger(logger))
	analyze.AddSteps(
		engine.NewAnalyzeStep(eng),
		engine.NewVerifyStep(eng),
	)
	if err := analyze.Execute(ctx, run); err != nil {
		return err
	}

	if d := run.Analysis.Detection; d != nil && !cfg.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Detected helper in %s: %s\n", d.File, d.Example)
	}

	records := run.Analysis.Records
	if !cfg.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Planned %d change(s) in %d file(s), %d skipped.\n",
			len(records), len(model.GroupChangesByFile(records)), len(run.Analysis.Skipped))
	}

	if dryRun {
		if !cfg.Quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "Dry run: nothing written.")
		}
		fillPlannedChanges(run.Report, records)
		run.Report.Normalize()
		return outputReport(cmd, cfg, run.Report)
	}

	if len(records) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
		}
		run.Report.Normalize()
		return outputReport(cmd, cfg, run.Report)
	}

	if !assumeYes && !confirm(cmd) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	// Phase two: backup and apply, under the run lock.
	apply := engine.NewPipeline(engine.WithPipelineLogger(logger))
	apply.AddSteps(
		engine.NewBackupStep(eng),
		engine.NewApplyStep(eng),
	)
	if err := apply.Execute(ctx, run); err != nil {
		return err
	}

	run.Report.Normalize()

	reportPath := reportPathFor(run.ID)
	if err := os.MkdirAll(config.XDGDataDir(), 0750); err == nil {
		if err := run.Report.SaveJSON(reportPath); err != nil {
			logger.Error("failed to persist report", "path", reportPath, "error", err)
			reportPath = ""
		}
	}

	if err := saveRunHistory(ctx, cfg, run.Report, reportPath, logger); err != nil {
		logger.Error("failed to save run history", "error", err)
	}

	if err := writeBackBookkeeping(cfg, run.Report); err != nil {
		logger.Error("failed to update config bookkeeping", "error", err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d change(s) in %d file(s). Backup manifest: %s\n",
			run.Report.AppliedCount(), run.Report.FilesModified(), run.Report.BackupManifestPath)
	}

	return outputReport(cmd, cfg, run.Report)
}

// fillPlannedChanges presents planned records as the report's change
// list for dry runs, where nothing was actually written.
func fillPlannedChanges(rep *model.MigrationReport, records []model.ChangeRecord) {
	for _, r := range records {
		rep.Applied = append(rep.Applied, model.AppliedChange{
			Path:        r.Path,
			Line:        r.Source.Line,
			Start:       r.Start,
			Original:    r.Original,
			Replacement: r.Replacement,
		})
	}
}

// confirm asks the user to approve the migration on stdin.
func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "Proceed with migration? [y/N]: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// saveRunHistory records the completed run in the history database.
func saveRunHistory(ctx context.Context, cfg *config.Config, rep *model.MigrationReport, reportPath string, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read path already flushed by SaveRun

	if err := db.SaveRun(ctx, rep, reportPath); err != nil {
		return err
	}
	logger.Info("run saved to history", "run_id", rep.RunID)
	return nil
}

// writeBackBookkeeping updates last_migration_date and
// last_migration_backup in the project configuration file, when one
// is in use and at least one change was applied.
func writeBackBookkeeping(cfg *config.Config, rep *model.MigrationReport) error {
	if cfg.ConfigFilePath == "" || rep.AppliedCount() == 0 {
		return nil
	}

	file, err := config.LoadFile(cfg.ConfigFilePath)
	if err != nil {
		return err
	}
	file.LastMigrationDate = nowStamp()
	file.LastMigrationBackup = rep.BackupManifestPath
	return file.Save(cfg.ConfigFilePath)
}
