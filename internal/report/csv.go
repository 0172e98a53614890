package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zomer-g/hesdermutne/internal/model"
)

// utf8BOM lets spreadsheet tools detect UTF-8 and show the Hebrew text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes records as CSV: a header row with the column names in
// fixed order, then one row per record in the order given.
type CSVWriter struct {
	baseWriter
	bom bool
}

// CSVWriterOption configures a CSVWriter.
type CSVWriterOption func(*CSVWriter)

// WithBOM prefixes the output with a UTF-8 byte order mark.
func WithBOM(enabled bool) CSVWriterOption {
	return func(w *CSVWriter) {
		w.bom = enabled
	}
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRecords writes the header and all records. Records are neither
// reordered nor deduplicated.
func (w *CSVWriter) WriteRecords(records []model.Record) error {
	if w.bom {
		if _, err := w.output.Write(utf8BOM); err != nil {
			return fmt.Errorf("write byte order mark: %w", err)
		}
	}

	cw := csv.NewWriter(w.output)
	if err := cw.Write(model.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(rec.Values()); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the records to the file at path, creating parent
// directories as needed. An existing file is replaced.
func SaveCSV(path string, records []model.Record, opts ...CSVWriterOption) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // output path is chosen by the user
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
	}()

	return NewCSVWriter(f, opts...).WriteRecords(records)
}
