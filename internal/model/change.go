package model

import "sort"

// ChangeRecord is one planned edit: replace the bytes at
// [Start,End) of Path, currently Original, with Replacement.
// Only internal candidates produce change records.
//
// Invariant: within one file, change records are non-overlapping and
// sorted ascending by Start. SortChanges establishes the order and
// Overlapping checks the invariant before destructive phases run.
type ChangeRecord struct {
	// Path is the file path relative to the scanned root.
	Path string `json:"path"`

	// Start and End are the byte range being replaced,
	// copied from the source candidate.
	Start int `json:"start"`
	End   int `json:"end"`

	// Original is the exact text currently occupying the range.
	Original string `json:"original"`

	// Replacement is the literal text that will be written in place
	// of Original. Quoting delimiters around the range are untouched.
	Replacement string `json:"replacement"`

	// Source is the candidate this record was planned from.
	Source Candidate `json:"source"`

	// MatchedDomain is the configured domain the candidate's host
	// matched, recorded for the audit trail.
	MatchedDomain string `json:"matched_domain"`
}

// SortChanges orders records by file path, then by start offset.
// This is the canonical order used for verification comparison and
// report output, so results are reproducible regardless of worker
// scheduling during the scan.
func SortChanges(records []ChangeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Path != records[j].Path {
			return records[i].Path < records[j].Path
		}
		return records[i].Start < records[j].Start
	})
}

// GroupChangesByFile splits records into per-file groups, preserving
// the relative order within each file. Files are independent units
// for backup, apply, and rollback.
func GroupChangesByFile(records []ChangeRecord) map[string][]ChangeRecord {
	byFile := make(map[string][]ChangeRecord)
	for _, r := range records {
		byFile[r.Path] = append(byFile[r.Path], r)
	}
	return byFile
}

// Overlapping reports whether any two records within the same file
// have intersecting byte ranges. The input must already be sorted
// with SortChanges. Overlaps indicate a scanner defect and must block
// destructive phases.
func Overlapping(records []ChangeRecord) bool {
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if prev.Path == cur.Path && cur.Start < prev.End {
			return true
		}
	}
	return false
}

// Mismatch describes a single disagreement between two independent
// classification/planning passes over the same candidate.
type Mismatch struct {
	// Key is the candidate identity the passes disagree about,
	// or the identity present in only one pass.
	Key string `json:"key"`

	// Field names what diverged: "classification", "replacement",
	// "missing_first_pass", or "missing_second_pass".
	Field string `json:"field"`

	// First and Second are the diverging values from each pass.
	First  string `json:"first"`
	Second string `json:"second"`
}

// VerificationResult is the outcome of the mandatory second
// classification/planning pass. Consistent must be true before any
// backup or apply is allowed; mismatches indicate nondeterminism and
// are a hard gate, not a warning.
type VerificationResult struct {
	// Candidates is the number of candidates compared.
	Candidates int `json:"candidates"`

	// Consistent is true when both passes agree on every candidate.
	Consistent bool `json:"consistent"`

	// Mismatches lists every disagreement found.
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}
