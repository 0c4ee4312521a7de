package engine

import (
	"context"
	"fmt"
)

// AnalyzeStep runs the first non-destructive pass and seeds the report
// with everything the later phases do not change: scanned file count,
// skipped candidates, scan failures, and the resolved template.
type AnalyzeStep struct {
	engine *Engine
}

// NewAnalyzeStep creates the analysis step.
func NewAnalyzeStep(engine *Engine) *AnalyzeStep {
	return &AnalyzeStep{engine: engine}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the first pass.
func (s *AnalyzeStep) Do(ctx context.Context, run *Run) error {
	analysis, err := s.engine.Analyze(ctx)
	if err != nil {
		return err
	}
	run.Analysis = analysis

	run.Report.ReplacementFormat = analysis.Template.Format()
	run.Report.FilesScanned = len(analysis.Scan.Files)
	run.Report.Skipped = analysis.Skipped
	run.Report.ScanFailures = analysis.Scan.Failures
	return nil
}

// VerifyStep runs the independent second pass and fails the run on any
// divergence from the first. Nothing destructive happens until this
// step has passed.
type VerifyStep struct {
	engine *Engine
}

// NewVerifyStep creates the verification step.
func NewVerifyStep(engine *Engine) *VerifyStep {
	return &VerifyStep{engine: engine}
}

// Name returns the step name.
func (s *VerifyStep) Name() string {
	return "verify"
}

// Do executes the second pass and compares it to the first.
func (s *VerifyStep) Do(ctx context.Context, run *Run) error {
	result, _, err := s.engine.Verify(ctx, run.Analysis)
	if err != nil {
		return err
	}
	run.Verification = result

	if !result.Consistent {
		return fmt.Errorf("%w: %d field(s) differ between passes",
			ErrVerificationMismatch, len(result.Mismatches))
	}
	return nil
}

// BackupStep archives every file with a planned change before the
// apply step may touch it. A run with no planned changes has nothing
// to back up and the step is a no-op.
type BackupStep struct {
	engine *Engine
}

// NewBackupStep creates the backup step.
func NewBackupStep(engine *Engine) *BackupStep {
	return &BackupStep{engine: engine}
}

// Name returns the step name.
func (s *BackupStep) Name() string {
	return "backup"
}

// Do creates and verifies the backup archive.
func (s *BackupStep) Do(_ context.Context, run *Run) error {
	if run.DryRun {
		s.engine.logger.Info("dry run, skipping backup")
		return nil
	}
	if len(run.Analysis.Records) == 0 {
		s.engine.logger.Info("no changes planned, skipping backup")
		return nil
	}

	manifest, err := s.engine.Backup(run.ID, run.Verification, run.Analysis.Records)
	if err != nil {
		return err
	}
	run.Manifest = manifest
	run.Report.BackupManifestPath = s.engine.ManifestPath(run.ID)
	return nil
}

// ApplyStep writes the planned changes to disk. It requires the
// manifest produced by the backup step; without one the engine
// refuses to modify anything.
type ApplyStep struct {
	engine *Engine
}

// NewApplyStep creates the apply step.
func NewApplyStep(engine *Engine) *ApplyStep {
	return &ApplyStep{engine: engine}
}

// Name returns the step name.
func (s *ApplyStep) Name() string {
	return "apply"
}

// Do applies the changes and records the outcome in the report.
func (s *ApplyStep) Do(ctx context.Context, run *Run) error {
	if run.DryRun {
		s.engine.logger.Info("dry run, skipping apply")
		return nil
	}
	if len(run.Analysis.Records) == 0 {
		s.engine.logger.Info("no changes planned, skipping apply")
		return nil
	}

	result, err := s.engine.Apply(ctx, run.Analysis.Records, run.Manifest)
	if err != nil {
		return err
	}

	run.Report.Applied = result.Applied
	run.Report.Failures = result.FailedFiles
	run.Report.Unreached = result.Unreached
	return nil
}
