package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/urlport/urlport/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal
// display and plain-file archiving.
//
// Design decision: We use plain text with ASCII formatting rather
// than ANSI colors because it pipes cleanly to files and diff tools,
// which matters for a report whose whole point is to be compared
// across runs.
type SimpleWriter struct {
	baseWriter

	// withDiffs adds a unified diff of each changed line.
	withDiffs bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithDiffs enables per-change unified diffs of the affected lines.
func WithDiffs(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.withDiffs = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given
// writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.MigrationReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeChanges(&sb, report)
	w.writeSkipped(&sb, report)
	w.writeFailures(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.MigrationReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      URL MIGRATION REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:          %s\n", report.RunID)
	fmt.Fprintf(sb, "Date:            %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Project:         %s\n", report.Root)
	fmt.Fprintf(sb, "Template:        %s\n", report.ReplacementFormat)
	if report.BackupManifestPath != "" {
		fmt.Fprintf(sb, "Backup manifest: %s\n", report.BackupManifestPath)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.MigrationReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nSUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Files scanned:    %d\n", report.FilesScanned)
	fmt.Fprintf(sb, "Changes applied:  %d\n", report.AppliedCount())
	fmt.Fprintf(sb, "Files modified:   %d\n", report.FilesModified())
	fmt.Fprintf(sb, "Candidates skipped: %d\n", len(report.Skipped))
	fmt.Fprintf(sb, "Scan failures:    %d\n", len(report.ScanFailures))
	fmt.Fprintf(sb, "Apply failures:   %d\n", len(report.Failures))
	if len(report.Unreached) > 0 {
		fmt.Fprintf(sb, "Unreached files:  %d (run cancelled)\n", len(report.Unreached))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeChanges(sb *strings.Builder, report *model.MigrationReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nAPPLIED CHANGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if len(report.Applied) == 0 {
		sb.WriteString("(none)\n\n")
		return
	}

	lastPath := ""
	for _, a := range report.Applied {
		if a.Path != lastPath {
			fmt.Fprintf(sb, "\n%s\n", a.Path)
			lastPath = a.Path
		}
		fmt.Fprintf(sb, "  line %d:\n", a.Line)
		fmt.Fprintf(sb, "    OLD: %s\n", a.Original)
		fmt.Fprintf(sb, "    NEW: %s\n", a.Replacement)
		if w.withDiffs {
			w.writeDiff(sb, a)
		}
	}
	sb.WriteString("\n")
}

// writeDiff renders a minimal unified diff for one change.
func (w *SimpleWriter) writeDiff(sb *strings.Builder, a model.AppliedChange) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        []string{a.Original + "\n"},
		B:        []string{a.Replacement + "\n"},
		FromFile: a.Path,
		ToFile:   a.Path,
		Context:  0,
	})
	if err != nil || diff == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		fmt.Fprintf(sb, "    %s\n", line)
	}
}

func (w *SimpleWriter) writeSkipped(sb *strings.Builder, report *model.MigrationReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nSKIPPED CANDIDATES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if len(report.Skipped) == 0 {
		sb.WriteString("(none)\n\n")
		return
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(sb, "  %s:%d  %s\n", s.Candidate.Path, s.Candidate.Line, s.Candidate.Raw)
		fmt.Fprintf(sb, "    [%s] %s\n", s.Classification, s.Reason)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.MigrationReport) {
	if len(report.ScanFailures) == 0 && len(report.Failures) == 0 && len(report.Unreached) == 0 {
		return
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nFAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, f := range report.ScanFailures {
		fmt.Fprintf(sb, "  [scan] %s: %s\n", f.Path, f.Reason)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(sb, "  [%s] %s: %s\n", f.Phase, f.Path, f.Reason)
	}
	for _, p := range report.Unreached {
		fmt.Fprintf(sb, "  [unreached] %s\n", p)
	}
	sb.WriteString("\n")
}
