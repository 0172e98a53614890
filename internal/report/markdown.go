package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/zomer-g/hesdermutne/internal/model"
)

// MarkdownWriter outputs the run summary in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeStop(md, run)
	w.writePages(md, run)
	w.writeMisses(md, run)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Conditional Arrangements Scrape")
	md.PlainText("")

	started := "-"
	if !run.StartedAt.IsZero() {
		started = run.StartedAt.Format("2006-01-02 15:04:05 MST")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + run.ID + "`"},
			{"Listing", run.BaseURL},
			{"Started", started},
			{"Duration", run.Duration().String()},
			{"Pages", strconv.Itoa(len(run.Pages))},
			{"Records", strconv.Itoa(len(run.Records))},
			{"Missing case numbers", strconv.Itoa(run.MissingCaseNumbers())},
		},
	})
	md.PlainText("")
}

// writeStop writes an alert describing why the walk ended.
func (w *MarkdownWriter) writeStop(md *markdown.Markdown, run *model.Run) {
	switch run.StopReason {
	case model.StopFetchFailed:
		md.Warningf("Stopped early: %s. Later pages were not visited.", stopText(run.StopReason))
	case model.StopCancelled:
		md.Cautionf("Run %s. The output holds the records gathered so far.", stopText(run.StopReason))
	case model.StopEndBound:
		md.Importantf("Stopped because it %s; more pages may exist.", stopText(run.StopReason))
	default:
		md.Note("Stopped because it " + stopText(run.StopReason) + ".")
	}
	md.PlainText("")
}

// writePages writes one table row per visited page.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, run *model.Run) {
	md.H2("Pages")
	md.PlainText("")

	if len(run.Pages) == 0 {
		md.PlainText("No pages visited.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Pages))
	for i, p := range run.Pages {
		errText := p.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			strconv.Itoa(p.Index),
			strconv.Itoa(p.Blocks),
			strconv.Itoa(p.Records),
			strconv.Itoa(p.Duplicates),
			strconv.Itoa(p.Dropped),
			strconv.Itoa(p.Expanded) + "/" + strconv.Itoa(p.Expanded+p.ExpandFailures),
			truncateString(errText, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Blocks", "Records", "Duplicates", "Dropped", "Expanded", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMisses writes the field-miss table and its distribution chart.
func (w *MarkdownWriter) writeMisses(md *markdown.Markdown, run *model.Run) {
	md.H2("Field Misses")
	md.PlainText("")

	misses := fieldMisses(run)
	if len(misses) == 0 {
		md.Tip("Every field was resolved in every record.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Misses by field"),
		piechart.WithShowData(true),
	)

	rows := make([][]string, len(misses))
	for i, m := range misses {
		rows[i] = []string{m.field.Header(), m.field.Key(), strconv.Itoa(m.count)}
		chart.LabelAndIntValue(m.field.Key(), uint64(m.count)) //nolint:gosec // counts are non-negative
	}

	md.Table(markdown.TableSet{
		Header: []string{"Column", "Field", "Records missing it"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// truncateString truncates a string to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
