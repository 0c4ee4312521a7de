package apply

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/urlport/urlport/internal/model"
)

// Engine applies change records to the tree under root. Files are
// independent units: one file's failure never aborts the others, and
// distinct files could in principle be written concurrently, though
// the engine writes them sequentially to keep cancellation semantics
// simple (the in-flight file always completes; later files are
// skipped and reported as unreached).
type Engine struct {
	root   string
	logger *slog.Logger
}

// New creates an apply Engine for the given project root.
func New(root string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{root: root, logger: logger}
}

// Apply writes the given changes, guarded by the manifest.
//
// Preconditions, violations of which fail the whole call:
//   - manifest is non-nil and covers every file with a change
//   - per-file records are non-overlapping
//
// Per-file behavior: records are spliced into the file's bytes in
// descending offset order (earlier replacements can change length and
// must not invalidate later offsets), the result is written to a temp
// file in the same directory and atomically renamed over the
// original, then the file is re-read and every target span compared
// to its expected replacement. A mismatch marks that file failed;
// remaining files still proceed.
func (e *Engine) Apply(ctx context.Context, records []model.ChangeRecord, manifest *model.BackupManifest) (*model.ApplyResult, error) {
	if manifest == nil {
		return nil, ErrNoManifest
	}

	model.SortChanges(records)
	if model.Overlapping(records) {
		return nil, ErrOverlappingChanges
	}

	byFile := model.GroupChangesByFile(records)
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if !manifest.Covers(paths) {
		return nil, ErrManifestCoverage
	}

	result := &model.ApplyResult{}
	for i, path := range paths {
		// Cancellation stops before the next file, never mid-file:
		// the current file's write-then-rename always completes.
		select {
		case <-ctx.Done():
			result.Unreached = append(result.Unreached, paths[i:]...)
			e.logger.Warn("apply cancelled",
				"applied_files", i,
				"unreached_files", len(result.Unreached),
			)
			return result, nil
		default:
		}

		applied, err := e.applyFile(path, byFile[path])
		if err != nil {
			e.logger.Error("apply failed for file", "path", path, "error", err)
			result.FailedFiles = append(result.FailedFiles, model.FileFailure{
				Path:   path,
				Phase:  "apply",
				Reason: err.Error(),
			})
			continue
		}
		result.Applied = append(result.Applied, applied...)
		e.logger.Debug("file applied", "path", path, "changes", len(applied))
	}
	return result, nil
}

// applyFile splices all of one file's records and writes the result
// atomically. Returns the applied-change entries on success.
func (e *Engine) applyFile(path string, records []model.ChangeRecord) ([]model.AppliedChange, error) {
	abs := filepath.Join(e.root, path)
	content, err := os.ReadFile(abs) //nolint:gosec // paths come from planned changes under root
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	// Splice descending so earlier (lower-offset) edits cannot shift
	// the ranges of edits not yet applied.
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.End > len(content) || string(content[r.Start:r.End]) != r.Original {
			return nil, fmt.Errorf("content drifted since planning at %s:%d (re-run the scan)", path, r.Start)
		}
		content = append(content[:r.Start], append([]byte(r.Replacement), content[r.End:]...)...)
	}

	if err := writeAtomic(abs, content); err != nil {
		return nil, err
	}

	// Post-condition: re-read from disk and confirm every span.
	written, err := os.ReadFile(abs) //nolint:gosec // same path written above
	if err != nil {
		return nil, fmt.Errorf("%w: re-read: %v", ErrPostCondition, err)
	}
	return verifySpans(path, written, records)
}

// verifySpans confirms that each record's replacement occupies its
// expected span in the written bytes. Offsets are adjusted by the
// cumulative length drift of earlier replacements; records must be
// sorted ascending by Start. Any mismatch returns ErrPostCondition
// for the whole file. On success it returns the applied-change
// entries for the report.
func verifySpans(path string, written []byte, records []model.ChangeRecord) ([]model.AppliedChange, error) {
	applied := make([]model.AppliedChange, 0, len(records))
	delta := 0
	for _, r := range records {
		start := r.Start + delta
		end := start + len(r.Replacement)
		if end > len(written) || !bytes.Equal(written[start:end], []byte(r.Replacement)) {
			return nil, fmt.Errorf("%w: span at %s:%d does not match expected replacement", ErrPostCondition, path, r.Start)
		}
		delta += len(r.Replacement) - (r.End - r.Start)
		applied = append(applied, model.AppliedChange{
			Path:        r.Path,
			Line:        r.Source.Line,
			Start:       r.Start,
			Original:    r.Original,
			Replacement: r.Replacement,
		})
	}
	return applied, nil
}

// writeAtomic writes data to path via a temp file in the same
// directory renamed over the original, preserving the original's
// permission bits. Rename within one directory is atomic on POSIX
// filesystems, so readers see either the old bytes or the new bytes,
// never a torn file.
func writeAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".urlport-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename over original: %w", err)
	}
	return nil
}
