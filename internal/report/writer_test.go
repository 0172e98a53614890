package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zomer-g/hesdermutne/internal/model"
)

// createTestRun creates a finished run with two pages for testing.
func createTestRun() *model.Run {
	run := model.NewRun("run-1", "https://example.gov.il/list")
	run.StartedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	run.FinishedAt = run.StartedAt.Add(90 * time.Second)
	run.StopReason = model.StopEmptyPage

	p1 := model.NewPageSummary(1, "https://example.gov.il/list?skip=0")
	p1.Blocks, p1.Records, p1.Duplicates, p1.Expanded = 3, 2, 1, 3
	p1.AddMiss(model.FieldReasoning)
	p1.AddMiss(model.FieldReasoning)

	p2 := model.NewPageSummary(2, "https://example.gov.il/list?skip=10")

	run.Pages = append(run.Pages, p1, p2)

	r1 := model.NewRecord()
	r1.Set(model.FieldCaseNumber, "2023/1")
	r1.Set(model.FieldBranch, "מחוז מרכז")
	r2 := model.NewRecord()
	r2.Set(model.FieldCaseNumber, model.MissingCaseNumber)
	run.Records = append(run.Records, r1, r2)

	return run
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"RUN SUMMARY",
			"run-1",
			"reached a page without records",
			"Records:              2",
			"Duplicates skipped:   1",
			"Missing case numbers: 1",
			"reasoning",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "PAGES") {
			t.Error("page listing must be verbose only")
		}
	})

	t.Run("verbose lists pages", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Pages[1].Error = "fetch page 2: navigation failed"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[  1] blocks=3 records=2") {
			t.Errorf("expected first page line, got:\n%s", output)
		}
		if !strings.Contains(output, "navigation failed") {
			t.Error("expected page error in output")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run table and pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Conditional Arrangements Scrape",
			"`run-1`",
			"## Pages",
			"## Field Misses",
			"נימוקים",
			"[!NOTE]",
			"pie",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("no misses", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Pages[0].FieldMisses = nil

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Error("expected tip when nothing was missed")
		}
		if strings.Contains(buf.String(), "pie") {
			t.Error("expected no chart when nothing was missed")
		}
	})

	t.Run("stop alerts", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			reason model.StopReason
			want   string
		}{
			{model.StopFetchFailed, "[!WARNING]"},
			{model.StopCancelled, "[!CAUTION]"},
			{model.StopEndBound, "[!IMPORTANT]"},
		}
		for _, tt := range tests {
			run := createTestRun()
			run.StopReason = tt.reason

			var buf bytes.Buffer
			if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("%s: expected %s alert", tt.reason, tt.want)
			}
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("summary without records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got["id"] != "run-1" || got["stop_reason"] != "empty-page" {
			t.Errorf("unexpected run fields: %v", got)
		}
		if got["record_count"] != float64(2) || got["missing_case_numbers"] != float64(1) {
			t.Errorf("unexpected counts: %v", got)
		}
		if _, ok := got["records"]; ok {
			t.Error("records must be omitted by default")
		}
	})

	t.Run("with records and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithRecords(true))
		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"id\"") {
			t.Error("expected indented output")
		}

		var got JSONSummary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if len(got.Records) != 2 || got.Records[0]["branch"] != "מחוז מרכז" {
			t.Errorf("unexpected records: %v", got.Records)
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.Run) (int, error) {
	return 0, errors.New("boom")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&a), NewMarkdownWriter(&b))
		n, err := m.Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to produce output")
		}
		if n == 0 {
			t.Error("expected byte count")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		if _, err := m.Write(createTestRun()); err == nil {
			t.Error("expected error")
		}
		if buf.Len() != 0 {
			t.Error("later writers must not run after an error")
		}
	})
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Format
	}{
		{"summary.md", FormatMarkdown},
		{"out/SUMMARY.MD", FormatMarkdown},
		{"summary.json", FormatJSON},
		{"summary.txt", FormatText},
		{"summary", FormatText},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := FormatFromPath(tt.path); got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	if _, ok := NewWriter(FormatJSON, &bytes.Buffer{}).(*JSONWriter); !ok {
		t.Error("expected JSONWriter for json format")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abcd", 3, "abc"},
		{"שלום עולם גדול", 8, "שלום ..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
