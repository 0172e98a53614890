package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/zomer-g/hesdermutne/internal/extract"
	"github.com/zomer-g/hesdermutne/internal/model"
	"github.com/zomer-g/hesdermutne/internal/render"
)

type fakePage struct {
	markup      string
	doc         *goquery.Document
	htmlErr     error
	waitErr     error
	clickErrs   map[int]error
	unsupported bool
	clicks      []int
	closed      bool
}

func newFakePage(t *testing.T, markup string) *fakePage {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("failed to parse markup: %v", err)
	}
	return &fakePage{markup: markup, doc: doc}
}

func (p *fakePage) Count(selector string) (int, error) {
	return p.doc.Find(selector).Length(), nil
}

func (p *fakePage) ClickNth(_ string, n int, _ time.Duration) error {
	if p.unsupported {
		return render.ErrInteractionUnsupported
	}
	p.clicks = append(p.clicks, n)
	return p.clickErrs[n]
}

func (p *fakePage) WaitFor(string, time.Duration) error {
	return p.waitErr
}

func (p *fakePage) HTML() (string, error) {
	return p.markup, p.htmlErr
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeRenderer struct {
	page   *fakePage
	err    error
	opened []string
}

func (r *fakeRenderer) Open(_ context.Context, url string) (render.Page, error) {
	r.opened = append(r.opened, url)
	if r.err != nil {
		return nil, r.err
	}
	return r.page, nil
}

func (r *fakeRenderer) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const twoCardPage = `<html><body>
<div class="dynamic-card"><strong>מספר תיק</strong><span>2023/1</span><button aria-controls="a">+</button></div>
<div class="dynamic-card"><strong>מספר תיק</strong><span>2023/2</span><button aria-controls="b">+</button></div>
<div class="dynamic-card"><strong>מספר תיק</strong><span>2023/1</span><button aria-controls="c">+</button></div>
</body></html>`

func TestFetchStep(t *testing.T) {
	t.Parallel()

	t.Run("opens the page url", func(t *testing.T) {
		t.Parallel()

		r := &fakeRenderer{page: newFakePage(t, twoCardPage)}
		step := NewFetchStep(r, ".dynamic-card", WithFetchLogger(discardLogger()))

		state := NewPageState(3, "http://x/list?skip=20")
		if err := step.Do(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.Page == nil {
			t.Fatal("expected page to be set")
		}
		if len(r.opened) != 1 || r.opened[0] != "http://x/list?skip=20" {
			t.Errorf("unexpected opened urls: %v", r.opened)
		}
	})

	t.Run("render failure is an error", func(t *testing.T) {
		t.Parallel()

		r := &fakeRenderer{err: render.ErrNavigate}
		step := NewFetchStep(r, ".dynamic-card", WithFetchLogger(discardLogger()))

		err := step.Do(context.Background(), NewPageState(1, "http://x/"))
		if !errors.Is(err, render.ErrNavigate) {
			t.Errorf("expected ErrNavigate, got %v", err)
		}
	})

	t.Run("ready timeout is not an error", func(t *testing.T) {
		t.Parallel()

		page := newFakePage(t, "<html></html>")
		page.waitErr = render.ErrWaitTimeout
		step := NewFetchStep(&fakeRenderer{page: page}, ".dynamic-card",
			WithReadyTimeout(time.Second),
			WithFetchLogger(discardLogger()),
		)

		if err := step.Do(context.Background(), NewPageState(1, "http://x/")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("settle delay honours cancellation", func(t *testing.T) {
		t.Parallel()

		step := NewFetchStep(&fakeRenderer{page: newFakePage(t, "<html></html>")}, ".dynamic-card",
			WithSettleDelay(time.Hour),
			WithFetchLogger(discardLogger()),
		)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := step.Do(ctx, NewPageState(1, "http://x/"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestExpandStep(t *testing.T) {
	t.Parallel()

	t.Run("clicks every toggle and counts failures", func(t *testing.T) {
		t.Parallel()

		page := newFakePage(t, twoCardPage)
		page.clickErrs = map[int]error{1: errors.New("detached")}
		state := NewPageState(1, "http://x/")
		state.Page = page

		step := NewExpandStep("button[aria-controls]", WithExpandDelay(0), WithExpandLogger(discardLogger()))
		if err := step.Do(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(page.clicks) != 3 {
			t.Errorf("expected 3 clicks, got %v", page.clicks)
		}
		if state.Summary.Expanded != 2 || state.Summary.ExpandFailures != 1 {
			t.Errorf("expected 2 expanded and 1 failure, got %d and %d",
				state.Summary.Expanded, state.Summary.ExpandFailures)
		}
	})

	t.Run("unsupported interaction ends quietly", func(t *testing.T) {
		t.Parallel()

		page := newFakePage(t, twoCardPage)
		page.unsupported = true
		state := NewPageState(1, "http://x/")
		state.Page = page

		step := NewExpandStep("button[aria-controls]", WithExpandDelay(0), WithExpandLogger(discardLogger()))
		if err := step.Do(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.Summary.Expanded != 0 || state.Summary.ExpandFailures != 0 {
			t.Errorf("expected no counts, got %+v", state.Summary)
		}
	})

	t.Run("empty selector disables expansion", func(t *testing.T) {
		t.Parallel()

		step := NewExpandStep("")
		if err := step.Do(context.Background(), NewPageState(1, "http://x/")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("requires a page", func(t *testing.T) {
		t.Parallel()

		step := NewExpandStep("button")
		if err := step.Do(context.Background(), NewPageState(1, "http://x/")); !errors.Is(err, ErrNoPage) {
			t.Errorf("expected ErrNoPage, got %v", err)
		}
	})
}

func TestLocateStep(t *testing.T) {
	t.Parallel()

	t.Run("finds blocks and dumps markup", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "dump")
		state := NewPageState(3, "http://x/")
		state.Page = newFakePage(t, twoCardPage)

		step := NewLocateStep(".dynamic-card", WithDumpDir(dir), WithLocateLogger(discardLogger()))
		if err := step.Do(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if state.Summary.Blocks != 3 {
			t.Errorf("expected 3 blocks, got %d", state.Summary.Blocks)
		}

		data, err := os.ReadFile(filepath.Join(dir, "page-003.html"))
		if err != nil {
			t.Fatalf("expected dump file: %v", err)
		}
		if string(data) != twoCardPage {
			t.Error("dump must hold the raw markup")
		}
	})

	t.Run("markup failure is an error", func(t *testing.T) {
		t.Parallel()

		page := newFakePage(t, "<html></html>")
		page.htmlErr = errors.New("target closed")
		state := NewPageState(1, "http://x/")
		state.Page = page

		if err := NewLocateStep(".dynamic-card").Do(context.Background(), state); err == nil {
			t.Error("expected error")
		}
	})
}

func TestExtractStep(t *testing.T) {
	t.Parallel()

	extractor, err := extract.NewExtractor(extract.DefaultSchema(), extract.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}

	state := NewPageState(1, "http://x/")
	state.Page = newFakePage(t, twoCardPage)
	if err := NewLocateStep(".dynamic-card").Do(context.Background(), state); err != nil {
		t.Fatalf("locate failed: %v", err)
	}

	step := NewExtractStep(extractor, WithExtractLogger(discardLogger()))
	if err := step.Do(context.Background(), state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(state.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(state.Records))
	}
	if state.Records[0].CaseNumber() != "2023/1" || state.Records[1].CaseNumber() != "2023/2" {
		t.Errorf("records out of block order: %q, %q",
			state.Records[0].CaseNumber(), state.Records[1].CaseNumber())
	}
	if state.Summary.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", state.Summary.Duplicates)
	}
	if state.Summary.Records != 2 {
		t.Errorf("expected summary to count 2 records, got %d", state.Summary.Records)
	}
	if got := state.Summary.FieldMisses[model.FieldBranch.Key()]; got != 2 {
		t.Errorf("expected 2 branch misses, got %d", got)
	}
}

// brokenStrategy panics on blocks marked "broken" and otherwise defers to
// the structural match.
type brokenStrategy struct {
	next extract.Strategy
}

func (s brokenStrategy) Name() string { return "broken" }

func (s brokenStrategy) Locate(block *goquery.Selection, label string) (string, bool) {
	if block.HasClass("broken") {
		panic("malformed card")
	}
	return s.next.Locate(block, label)
}

func TestExtractStep_DropsFailedBlock(t *testing.T) {
	t.Parallel()

	schema := extract.DefaultSchema()
	rules := extract.Rules(schema)
	rules[1].Strategies = []extract.Strategy{brokenStrategy{next: rules[1].Strategies[0]}}

	extractor, err := extract.NewExtractor(schema,
		extract.WithLogger(discardLogger()),
		extract.WithRules(rules),
	)
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}

	const page = `<html><body>
<div class="dynamic-card"><strong>מספר תיק</strong><span>2023/1</span><strong>שלוחה</strong><span>מחוז מרכז</span></div>
<div class="dynamic-card broken"><strong>מספר תיק</strong><span>2023/2</span></div>
<div class="dynamic-card"><strong>מספר תיק</strong><span>2023/3</span><strong>שלוחה</strong><span>מחוז צפון</span></div>
</body></html>`

	state := NewPageState(1, "http://x/")
	state.Page = newFakePage(t, page)
	if err := NewLocateStep(".dynamic-card").Do(context.Background(), state); err != nil {
		t.Fatalf("locate failed: %v", err)
	}

	if err := NewExtractStep(extractor, WithExtractLogger(discardLogger())).Do(context.Background(), state); err != nil {
		t.Fatalf("a dropped block must not fail the page: %v", err)
	}

	got := make([]string, 0, len(state.Records))
	for _, rec := range state.Records {
		got = append(got, rec.CaseNumber())
	}
	if diff := cmp.Diff([]string{"2023/1", "2023/3"}, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if state.Summary.Dropped != 1 {
		t.Errorf("expected 1 dropped block, got %d", state.Summary.Dropped)
	}
	if state.Summary.Records != 2 {
		t.Errorf("expected summary to count 2 records, got %d", state.Summary.Records)
	}
	if state.Summary.Blocks != 3 {
		t.Errorf("expected 3 blocks, got %d", state.Summary.Blocks)
	}
}

func TestDumpFileName(t *testing.T) {
	t.Parallel()

	if got := DumpFileName(7); got != "page-007.html" {
		t.Errorf("DumpFileName(7) = %q", got)
	}
}
