package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/zomer-g/hesdermutne/internal/model"
)

// Writer writes a summary of a finished run.
type Writer interface {
	// Write outputs the run summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written and stops on the first error.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Format is a summary output format.
type Format string

const (
	// FormatText is the plain text summary.
	FormatText Format = "text"
	// FormatMarkdown is the Markdown summary.
	FormatMarkdown Format = "markdown"
	// FormatJSON is the JSON summary.
	FormatJSON Format = "json"
)

// FormatFromPath picks the summary format from a file extension.
// Unknown extensions fall back to text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// NewWriter returns the summary writer for a format.
func NewWriter(format Format, output io.Writer) Writer {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// stopText describes a stop reason for humans.
func stopText(reason model.StopReason) string {
	switch reason {
	case model.StopEmptyPage:
		return "reached a page without records"
	case model.StopFetchFailed:
		return "a page could not be fetched"
	case model.StopEndBound:
		return "reached the configured end page"
	case model.StopCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// fieldMiss is the miss count of one field.
type fieldMiss struct {
	field model.Field
	count int
}

// fieldMisses returns the non-zero miss counts of a run in column order.
func fieldMisses(run *model.Run) []fieldMiss {
	totals := run.FieldMisses()
	out := make([]fieldMiss, 0, len(totals))
	for _, f := range model.Fields() {
		if n := totals[f.Key()]; n > 0 {
			out = append(out, fieldMiss{field: f, count: n})
		}
	}
	return out
}
