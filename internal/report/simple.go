package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zomer-g/hesdermutne/internal/model"
)

// SimpleWriter outputs a plain text run summary for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds one line per visited page.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-page listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeTotals(&sb, run)
	w.writeMisses(&sb, run)
	if w.verbose {
		w.writePages(&sb, run)
	}
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Run:      %s\n", run.ID)
	fmt.Fprintf(sb, "Listing:  %s\n", run.BaseURL)
	if !run.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(sb, "Duration: %s\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Stopped:  %s\n\n", stopText(run.StopReason))
}

func (w *SimpleWriter) writeTotals(sb *strings.Builder, run *model.Run) {
	var duplicates, dropped int
	for _, p := range run.Pages {
		duplicates += p.Duplicates
		dropped += p.Dropped
	}

	fmt.Fprintf(sb, "  Pages:                %d\n", len(run.Pages))
	fmt.Fprintf(sb, "  Records:              %d\n", len(run.Records))
	fmt.Fprintf(sb, "  Duplicates skipped:   %d\n", duplicates)
	fmt.Fprintf(sb, "  Blocks dropped:       %d\n", dropped)
	fmt.Fprintf(sb, "  Missing case numbers: %d\n\n", run.MissingCaseNumbers())
}

func (w *SimpleWriter) writeMisses(sb *strings.Builder, run *model.Run) {
	misses := fieldMisses(run)
	if len(misses) == 0 {
		return
	}

	sb.WriteString("FIELD MISSES\n")
	for _, m := range misses {
		fmt.Fprintf(sb, "  %-12s %d\n", m.field.Key(), m.count)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, run *model.Run) {
	sb.WriteString("PAGES\n")
	for _, p := range run.Pages {
		fmt.Fprintf(sb, "  [%3d] blocks=%d records=%d duplicates=%d dropped=%d",
			p.Index, p.Blocks, p.Records, p.Duplicates, p.Dropped)
		if p.Error != "" {
			fmt.Fprintf(sb, " error=%q", p.Error)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
