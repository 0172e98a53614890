package report

import (
	"encoding/json"
	"io"

	"github.com/zomer-g/hesdermutne/internal/model"
)

// JSONWriter outputs the run summary as JSON.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent       bool
	indentPrefix string
	indentString string

	// records includes every record in the output.
	records bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithRecords includes the records, keyed by field, in the output.
func WithRecords(enabled bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.records = enabled
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

// JSONSummary is the JSON document written for a run.
type JSONSummary struct {
	*model.Run

	// RecordCount is the number of records collected.
	RecordCount int `json:"record_count"`

	// MissingCaseNumbers counts records without a recovered case number.
	MissingCaseNumbers int `json:"missing_case_numbers"`

	// FieldMisses sums the per-field misses of all pages.
	FieldMisses map[string]int `json:"field_misses"`

	// Records holds the records when requested.
	Records []map[string]string `json:"records,omitempty"`
}

// NewJSONSummary builds the JSON document for a run.
func NewJSONSummary(run *model.Run, withRecords bool) *JSONSummary {
	s := &JSONSummary{
		Run:                run,
		RecordCount:        len(run.Records),
		MissingCaseNumbers: run.MissingCaseNumbers(),
		FieldMisses:        run.FieldMisses(),
	}
	if withRecords {
		s.Records = make([]map[string]string, len(run.Records))
		for i, rec := range run.Records {
			s.Records[i] = rec.Map()
		}
	}
	return s
}

// Write outputs the run summary in JSON format.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	summary := NewJSONSummary(run, w.records)

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(summary, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(summary)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
