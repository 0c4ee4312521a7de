package report

import (
	"encoding/json"
	"io"

	"github.com/urlport/urlport/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
//
// Design decision: We use standard encoding/json rather than a
// third-party JSON library because the report types already carry
// JSON tags for persistence and no streaming is needed.
type JSONWriter struct {
	baseWriter

	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented JSON output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as JSON.
func (w *JSONWriter) Write(report *model.MigrationReport) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
