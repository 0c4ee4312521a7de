package report

import (
	"io"

	"github.com/urlport/urlport/internal/model"
)

// Writer defines the interface for report output. Implementations
// render migration reports in various formats.
//
// Design decision: We use an interface to allow different output
// formats and destinations. This enables writing to files, stdout, or
// both with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	// The report must be Normalized by the caller first.
	Write(report *model.MigrationReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, useful for
// outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers. Returns the
// total bytes written; stops on the first error encountered.
func (m *MultiWriter) Write(report *model.MigrationReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
