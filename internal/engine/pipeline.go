package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/urlport/urlport/internal/model"
)

// Run carries the accumulated state of a single migration run through
// the pipeline. Each step reads what earlier steps produced and fills
// in its own part.
type Run struct {
	// ID is the unique identifier for this run, used to name the
	// backup archive and manifest.
	ID string

	// DryRun stops the pipeline before any file is modified. Analysis
	// and verification still execute so the report is complete.
	DryRun bool

	// Analysis holds the first-pass scan, classification, and plan.
	Analysis *Analysis

	// Verification holds the result of comparing the two passes.
	Verification *model.VerificationResult

	// Manifest describes the backup created before apply.
	Manifest *model.BackupManifest

	// Report accumulates the outcome of every step.
	Report *model.MigrationReport
}

// Step is one stage of a migration run. Steps execute in sequence and
// communicate through the shared Run.
//
// Design decision: We use an interface rather than function types
// because it allows steps to carry configuration state and provides a
// Name() method for logging. An error return stops the pipeline; a
// migration has hard ordering requirements (verify before backup,
// backup before apply), so there is no continue-on-error mode.
type Step interface {
	// Do executes the step, reading and updating the run state.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes migration steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets a custom logger for the pipeline.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates an empty pipeline. Steps are added with AddSteps.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs all steps in sequence, stopping on the first error.
//
// Design decision: We check context.Done() before each step rather
// than during, because steps handle their own cancellation internally.
// This gives a clean boundary between steps while still respecting
// cancellation.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	if run.Report.StartedAt.IsZero() {
		run.Report.StartedAt = time.Now().UTC()
	}
	defer func() {
		run.Report.FinishedAt = time.Now().UTC()
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("migration cancelled",
				"step", step.Name(),
				"run_id", run.ID,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step", "step", step.Name(), "run_id", run.ID)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run_id", run.ID,
				"error", err,
			)
			return err
		}

		p.logger.Debug("step completed", "step", step.Name(), "run_id", run.ID)
	}
	return nil
}
