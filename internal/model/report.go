package model

import (
	"encoding/json"
	"os"
	"sort"
	"time"
)

// ScanFailure records a file the scanner could not read or decode.
// Scan failures never abort a run; they accumulate into the report.
type ScanFailure struct {
	Path string `json:"path"`

	// Encoding is the detected encoding label when the file was
	// readable but not scannable as text, empty otherwise.
	Encoding string `json:"encoding,omitempty"`

	Reason string `json:"reason"`
}

// AppliedChange is one change that was written to disk, with its
// before and after text for the audit trail.
type AppliedChange struct {
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Start       int    `json:"start"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// FileFailure records a per-file failure during apply or rollback.
// Failures isolate: one failed file never stops the others.
type FileFailure struct {
	Path string `json:"path"`

	// Phase names the phase that failed: "apply" or "rollback".
	Phase string `json:"phase"`

	Reason string `json:"reason"`
}

// ApplyResult is the structured outcome of the apply phase.
// Applied and Failed are symmetric with the rollback result so a
// front end can render both the same way.
type ApplyResult struct {
	// Applied lists every change successfully written, in canonical
	// (path, offset) order.
	Applied []AppliedChange `json:"applied"`

	// FailedFiles lists files whose post-condition check failed or
	// whose write errored. Changes in these files were not applied,
	// or were applied but could not be confirmed.
	FailedFiles []FileFailure `json:"failed_files,omitempty"`

	// Unreached lists files the run was cancelled before writing.
	// Already-applied files stay applied; nothing is rolled back
	// automatically on cancellation.
	Unreached []string `json:"unreached,omitempty"`
}

// RollbackResult is the structured outcome of a full or selective
// rollback.
type RollbackResult struct {
	// Restored lists files whose pre-migration bytes were put back
	// and re-verified against the manifest checksum.
	Restored []string `json:"restored"`

	// Failed lists files whose archive entry was missing or corrupt.
	// Other files in the manifest are still restored.
	Failed []FileFailure `json:"failed,omitempty"`

	// Skipped lists manifest entries not requested by a selective
	// rollback. Empty for a full rollback.
	Skipped []string `json:"skipped,omitempty"`
}

// MigrationReport is the deterministic audit trail of one run.
// It is created at run end, persisted, and never mutated afterward.
// Two runs over identical inputs produce byte-identical reports aside
// from run id and timestamps.
type MigrationReport struct {
	// RunID ties the report to its backup manifest.
	RunID string `json:"run_id"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Root is the scanned project directory.
	Root string `json:"root"`

	// ReplacementFormat is the template format the run used, after
	// auto-detection resolved it.
	ReplacementFormat string `json:"replacement_format"`

	// FilesScanned is the number of files the scanner visited.
	FilesScanned int `json:"files_scanned"`

	// Applied lists every change written to disk.
	Applied []AppliedChange `json:"applied"`

	// Skipped lists every candidate that produced no change, with
	// its classification reason.
	Skipped []SkippedCandidate `json:"skipped"`

	// ScanFailures lists unreadable or undecodable files.
	ScanFailures []ScanFailure `json:"scan_failures,omitempty"`

	// Failures lists per-file apply failures.
	Failures []FileFailure `json:"failures,omitempty"`

	// Unreached lists files never written because the run was
	// cancelled mid-apply.
	Unreached []string `json:"unreached,omitempty"`

	// BackupManifestPath references the manifest backing this run.
	BackupManifestPath string `json:"backup_manifest_path,omitempty"`
}

// Normalize sorts every list in the report into canonical order:
// file path first, then offset. Callers must invoke it once before
// persisting so that report output is diffable across runs.
func (r *MigrationReport) Normalize() {
	sort.Slice(r.Applied, func(i, j int) bool {
		if r.Applied[i].Path != r.Applied[j].Path {
			return r.Applied[i].Path < r.Applied[j].Path
		}
		return r.Applied[i].Start < r.Applied[j].Start
	})
	sort.Slice(r.Skipped, func(i, j int) bool {
		a, b := r.Skipped[i].Candidate, r.Skipped[j].Candidate
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Start < b.Start
	})
	sort.Slice(r.ScanFailures, func(i, j int) bool {
		return r.ScanFailures[i].Path < r.ScanFailures[j].Path
	})
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].Path < r.Failures[j].Path
	})
	sort.Strings(r.Unreached)
}

// AppliedCount returns the number of applied changes.
func (r *MigrationReport) AppliedCount() int { return len(r.Applied) }

// FilesModified returns the number of distinct files with at least
// one applied change.
func (r *MigrationReport) FilesModified() int {
	seen := make(map[string]struct{})
	for _, a := range r.Applied {
		seen[a.Path] = struct{}{}
	}
	return len(seen)
}

// SaveJSON persists the report as indented JSON.
func (r *MigrationReport) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
