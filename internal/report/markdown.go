package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/urlport/urlport/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown, for
// sharing a migration review in a pull request or wiki.
//
// Design decision: We use the nao1215/markdown library for fluent,
// type-safe markdown generation (tables, alerts, code blocks) instead
// of hand-concatenated strings.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the
// given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.MigrationReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeChanges(md, report)
	w.writeSkipped(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.MigrationReport) {
	md.H1("URL Migration Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Project", "`" + report.Root + "`"},
			{"Template", "`" + report.ReplacementFormat + "`"},
			{"Backup manifest", "`" + report.BackupManifestPath + "`"},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.MigrationReport) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Files scanned", strconv.Itoa(report.FilesScanned)},
			{"Changes applied", strconv.Itoa(report.AppliedCount())},
			{"Files modified", strconv.Itoa(report.FilesModified())},
			{"Candidates skipped", strconv.Itoa(len(report.Skipped))},
			{"Scan failures", strconv.Itoa(len(report.ScanFailures))},
			{"Apply failures", strconv.Itoa(len(report.Failures))},
		},
	})
	md.PlainText("")

	switch {
	case len(report.Failures) > 0:
		md.Warningf("%d file(s) failed the apply post-condition check; review the failure list and roll back if needed.", len(report.Failures))
	case len(report.Unreached) > 0:
		md.Importantf("The run was cancelled: %d file(s) were never written. Applied files remain applied.", len(report.Unreached))
	case report.AppliedCount() > 0:
		md.Notef("All %d change(s) applied and verified.", report.AppliedCount())
	default:
		md.Tip("No internal URLs required migration.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeChanges(md *markdown.Markdown, report *model.MigrationReport) {
	md.H2("Applied Changes")
	md.PlainText("")
	if len(report.Applied) == 0 {
		md.PlainText("No changes were applied.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Applied))
	for _, a := range report.Applied {
		rows = append(rows, []string{
			"`" + a.Path + "`",
			strconv.Itoa(a.Line),
			"`" + a.Original + "`",
			"`" + a.Replacement + "`",
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Line", "Old", "New"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, report *model.MigrationReport) {
	md.H2("Skipped Candidates")
	md.PlainText("")
	if len(report.Skipped) == 0 {
		md.PlainText("No candidates were skipped.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Skipped))
	for _, s := range report.Skipped {
		rows = append(rows, []string{
			"`" + s.Candidate.Path + "`",
			strconv.Itoa(s.Candidate.Line),
			"`" + s.Candidate.Raw + "`",
			s.Classification.String(),
			s.Reason,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Line", "URL", "Classification", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.MigrationReport) {
	if len(report.ScanFailures) == 0 && len(report.Failures) == 0 && len(report.Unreached) == 0 {
		return
	}
	md.H2("Failures")
	md.PlainText("")

	var items []string
	for _, f := range report.ScanFailures {
		items = append(items, "[scan] `"+f.Path+"`: "+f.Reason)
	}
	for _, f := range report.Failures {
		items = append(items, "["+f.Phase+"] `"+f.Path+"`: "+f.Reason)
	}
	for _, p := range report.Unreached {
		items = append(items, "[unreached] `"+p+"`")
	}
	md.BulletList(items...)
	md.PlainText("")
}
