package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/urlport/urlport/internal/apply"
	"github.com/urlport/urlport/internal/backup"
	"github.com/urlport/urlport/internal/classify"
	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/model"
	"github.com/urlport/urlport/internal/planner"
	"github.com/urlport/urlport/internal/rollback"
	"github.com/urlport/urlport/internal/scanner"
)

// Engine drives a migration over one project with one immutable
// configuration. All operations are synchronous and bounded; there is
// no network I/O and no background process.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	// mu serializes destructive operations within this process, in
	// addition to the cross-process run lock in the backup directory.
	mu sync.Mutex
}

// New creates an Engine for a validated configuration.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// ScanResult is the outcome of the scan phase.
type ScanResult struct {
	// Files is the sorted list of files visited.
	Files []string

	// Candidates is every URL occurrence found, sorted by
	// (path, offset).
	Candidates []model.Candidate

	// Failures lists files skipped as unreadable or undecodable.
	Failures []model.ScanFailure
}

// Analysis is one complete non-destructive pass: scan, classify, and
// plan. The verification phase runs two of these independently and
// compares them.
type Analysis struct {
	Scan     *ScanResult
	Outcomes map[string]classify.Outcome
	Records  []model.ChangeRecord
	Skipped  []model.SkippedCandidate

	// Template is the resolved replacement template.
	Template planner.Template

	// Detection is non-nil when the template came from the
	// helper-pattern detector.
	Detection *planner.Detection
}

// Scan walks the project and extracts URL candidates from every
// eligible file. Files are scanned concurrently; the merged result is
// sorted so ordering is reproducible regardless of worker scheduling.
//
// Per-file read or decode problems become ScanFailures in the result,
// never an error: one bad file must not fail the run.
func (e *Engine) Scan(ctx context.Context) (*ScanResult, error) {
	walker := scanner.NewWalker(e.cfg.Root, e.cfg.FileTypes, e.cfg.IgnorePatterns)
	files, err := walker.Files()
	if err != nil {
		return nil, err
	}

	sc := scanner.New(e.cfg.Root, scanner.WithDeepScan(e.cfg.DeepScan))

	perFile := make([][]model.Candidate, len(files))
	perFileErr := make([]*scanner.ScanError, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			cands, err := sc.ScanFile(f)
			if err != nil {
				se, ok := err.(*scanner.ScanError)
				if !ok {
					se = &scanner.ScanError{Path: f, Err: err}
				}
				perFileErr[i] = se
				return nil
			}
			perFile[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{Files: files}
	for i := range files {
		if se := perFileErr[i]; se != nil {
			result.Failures = append(result.Failures, model.ScanFailure{
				Path:     se.Path,
				Encoding: se.Encoding,
				Reason:   se.Error(),
			})
			continue
		}
		result.Candidates = append(result.Candidates, perFile[i]...)
	}

	// Files is already sorted and per-file candidates are sorted by
	// offset, but sort again so the invariant does not depend on the
	// merge above staying in file order.
	sort.Slice(result.Candidates, func(i, j int) bool {
		a, b := result.Candidates[i], result.Candidates[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Start < b.Start
	})

	e.logger.Info("scan complete",
		"files", len(files),
		"candidates", len(result.Candidates),
		"failures", len(result.Failures),
	)
	return result, nil
}

// Classify labels every candidate using the configured rule table.
// Results are keyed by candidate identity.
func (e *Engine) Classify(candidates []model.Candidate) map[string]classify.Outcome {
	cl := classify.New(e.cfg)
	outcomes := make(map[string]classify.Outcome, len(candidates))
	for _, c := range candidates {
		out := cl.Classify(c)
		if out.Classification == model.ClassWhitelisted {
			if d := cl.InternalMatch(c.Host); d != "" {
				e.logger.Debug("whitelist overrides internal match",
					"candidate", c.Key(),
					"host", c.Host,
					"internal_domain", d,
				)
			}
		}
		outcomes[c.Key()] = out
	}
	return outcomes
}

// Plan converts classified candidates into change records and skip
// entries using the given template. Records come back in canonical
// (path, offset) order.
func (e *Engine) Plan(candidates []model.Candidate, outcomes map[string]classify.Outcome, tmpl planner.Template) ([]model.ChangeRecord, []model.SkippedCandidate) {
	p := planner.New(tmpl)
	var records []model.ChangeRecord
	var skipped []model.SkippedCandidate
	for _, c := range candidates {
		rec, skip := p.Plan(c, outcomes[c.Key()])
		if rec != nil {
			records = append(records, *rec)
		}
		if skip != nil {
			skipped = append(skipped, *skip)
		}
	}
	model.SortChanges(records)
	return records, skipped
}

// Analyze runs one full non-destructive pass: template resolution,
// scan, classify, plan.
func (e *Engine) Analyze(ctx context.Context) (*Analysis, error) {
	tmpl, detection, err := planner.ResolveTemplate(e.cfg)
	if err != nil {
		return nil, err
	}

	scanResult, err := e.Scan(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := e.Classify(scanResult.Candidates)
	records, skipped := e.Plan(scanResult.Candidates, outcomes, tmpl)

	return &Analysis{
		Scan:      scanResult,
		Outcomes:  outcomes,
		Records:   records,
		Skipped:   skipped,
		Template:  tmpl,
		Detection: detection,
	}, nil
}

// Backup snapshots every file with at least one planned change and
// returns the verified manifest. It refuses to run without a
// consistent verification result.
func (e *Engine) Backup(runID string, verification *model.VerificationResult, records []model.ChangeRecord) (*model.BackupManifest, error) {
	if verification == nil || !verification.Consistent {
		return nil, ErrNotVerified
	}
	if len(records) == 0 {
		return nil, ErrNothingToMigrate
	}

	byFile := model.GroupChangesByFile(records)
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	mgr := backup.NewManager(e.cfg.Root, e.backupDir(), e.logger)
	return mgr.Create(runID, files)
}

// ManifestPath returns where the manifest for the given run is
// written in the backup directory.
func (e *Engine) ManifestPath(runID string) string {
	return backup.NewManager(e.cfg.Root, e.backupDir(), e.logger).ManifestPath(runID)
}

// Apply writes the approved changes under the run lock. The manifest
// must be the verified one returned by Backup.
func (e *Engine) Apply(ctx context.Context, records []model.ChangeRecord, manifest *model.BackupManifest) (*model.ApplyResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, err := backup.AcquireLock(e.backupDir())
	if err != nil {
		return nil, err
	}
	defer lock.Release() //nolint:errcheck // best-effort unlock on the happy path

	return apply.New(e.cfg.Root, e.logger).Apply(ctx, records, manifest)
}

// RollbackFull restores every file in the manifest under the run lock.
func (e *Engine) RollbackFull(manifest *model.BackupManifest) (*model.RollbackResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, err := backup.AcquireLock(e.backupDir())
	if err != nil {
		return nil, err
	}
	defer lock.Release() //nolint:errcheck // best-effort unlock on the happy path

	return rollback.NewManager(e.cfg.Root, e.logger).Full(manifest)
}

// RollbackSelective restores only the named files under the run lock.
func (e *Engine) RollbackSelective(manifest *model.BackupManifest, paths []string) (*model.RollbackResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, err := backup.AcquireLock(e.backupDir())
	if err != nil {
		return nil, err
	}
	defer lock.Release() //nolint:errcheck // best-effort unlock on the happy path

	return rollback.NewManager(e.cfg.Root, e.logger).Selective(manifest, paths)
}

// backupDir returns the configured backup directory, defaulting to
// the XDG data directory.
func (e *Engine) backupDir() string {
	if e.cfg.BackupDir != "" {
		return e.cfg.BackupDir
	}
	return config.XDGDataDir()
}
