package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/zomer-g/hesdermutne/internal/extract"
	"github.com/zomer-g/hesdermutne/internal/render"
)

// ErrNoPage is returned by steps that need a rendered page when FetchStep
// has not produced one.
var ErrNoPage = errors.New("page not rendered")

// FetchStep renders the page URL and waits for it to settle.
//
// With a positive ready timeout it waits for the first block to appear;
// otherwise it sleeps for the settle delay. A page where no block shows up
// in time is not a failure: empty pages are how pagination ends.
type FetchStep struct {
	renderer      render.Renderer
	blockSelector string
	readyTimeout  time.Duration
	settleDelay   time.Duration
	logger        *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithReadyTimeout sets the bounded wait for the first block.
func WithReadyTimeout(d time.Duration) FetchStepOption {
	return func(s *FetchStep) {
		s.readyTimeout = d
	}
}

// WithSettleDelay sets the fixed delay used when no ready timeout is set.
func WithSettleDelay(d time.Duration) FetchStepOption {
	return func(s *FetchStep) {
		s.settleDelay = d
	}
}

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a new fetch step.
func NewFetchStep(renderer render.Renderer, blockSelector string, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		renderer:      renderer,
		blockSelector: blockSelector,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, state *PageState) error {
	page, err := s.renderer.Open(ctx, state.Summary.URL)
	if err != nil {
		return fmt.Errorf("fetch page %d: %w", state.Summary.Index, err)
	}
	state.Page = page

	if s.readyTimeout > 0 {
		if err := page.WaitFor(s.blockSelector, s.readyTimeout); err != nil {
			s.logger.Debug("no block appeared before timeout",
				"page", state.Summary.Index,
				"timeout", s.readyTimeout,
				"error", err,
			)
		}
		return nil
	}
	return sleep(ctx, s.settleDelay)
}

// ExpandStep triggers every collapsed-content toggle on the page.
type ExpandStep struct {
	toggleSelector string
	delay          time.Duration
	clickTimeout   time.Duration
	logger         *slog.Logger
}

// ExpandStepOption configures an ExpandStep.
type ExpandStepOption func(*ExpandStep)

// WithExpandDelay sets the pause after each toggle.
func WithExpandDelay(d time.Duration) ExpandStepOption {
	return func(s *ExpandStep) {
		s.delay = d
	}
}

// WithClickTimeout bounds each toggle click.
func WithClickTimeout(d time.Duration) ExpandStepOption {
	return func(s *ExpandStep) {
		s.clickTimeout = d
	}
}

// WithExpandLogger sets a custom logger for the expand step.
func WithExpandLogger(logger *slog.Logger) ExpandStepOption {
	return func(s *ExpandStep) {
		s.logger = logger
	}
}

// NewExpandStep creates a new expand step. An empty selector disables it.
func NewExpandStep(toggleSelector string, opts ...ExpandStepOption) *ExpandStep {
	s := &ExpandStep{
		toggleSelector: toggleSelector,
		delay:          500 * time.Millisecond,
		clickTimeout:   5 * time.Second,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExpandStep) Name() string {
	return "expand"
}

// Do executes the expand step. Toggle failures are logged and counted;
// only cancellation stops it early with an error.
func (s *ExpandStep) Do(ctx context.Context, state *PageState) error {
	if s.toggleSelector == "" {
		return nil
	}
	if state.Page == nil {
		return ErrNoPage
	}

	n, err := state.Page.Count(s.toggleSelector)
	if err != nil {
		s.logger.Warn("failed to count toggles", "page", state.Summary.Index, "error", err)
		return nil
	}

	for i := 0; i < n; i++ {
		err := state.Page.ClickNth(s.toggleSelector, i, s.clickTimeout)
		if errors.Is(err, render.ErrInteractionUnsupported) {
			s.logger.Debug("renderer cannot expand toggles", "page", state.Summary.Index)
			return nil
		}
		if err != nil {
			state.Summary.ExpandFailures++
			s.logger.Info("toggle failed",
				"page", state.Summary.Index,
				"toggle", i,
				"error", err,
			)
		} else {
			state.Summary.Expanded++
		}

		if err := sleep(ctx, s.delay); err != nil {
			return err
		}
	}
	return nil
}

// LocateStep snapshots the rendered markup and finds the content blocks.
// When a dump directory is set the markup is also written to
// page-NNN.html for manual inspection.
type LocateStep struct {
	blockSelector string
	dumpDir       string
	logger        *slog.Logger
}

// LocateStepOption configures a LocateStep.
type LocateStepOption func(*LocateStep)

// WithDumpDir enables the raw markup dump.
func WithDumpDir(dir string) LocateStepOption {
	return func(s *LocateStep) {
		s.dumpDir = dir
	}
}

// WithLocateLogger sets a custom logger for the locate step.
func WithLocateLogger(logger *slog.Logger) LocateStepOption {
	return func(s *LocateStep) {
		s.logger = logger
	}
}

// NewLocateStep creates a new locate step.
func NewLocateStep(blockSelector string, opts ...LocateStepOption) *LocateStep {
	s := &LocateStep{
		blockSelector: blockSelector,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LocateStep) Name() string {
	return "locate"
}

// Do executes the locate step.
func (s *LocateStep) Do(_ context.Context, state *PageState) error {
	if state.Page == nil {
		return ErrNoPage
	}

	markup, err := state.Page.HTML()
	if err != nil {
		return fmt.Errorf("read markup of page %d: %w", state.Summary.Index, err)
	}

	if s.dumpDir != "" {
		if path, err := s.dump(state.Summary.Index, markup); err != nil {
			s.logger.Warn("failed to dump page markup", "page", state.Summary.Index, "error", err)
		} else {
			s.logger.Debug("page markup dumped", "page", state.Summary.Index, "path", path)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parse markup of page %d: %w", state.Summary.Index, err)
	}

	state.Blocks = doc.Find(s.blockSelector)
	state.Summary.Blocks = state.Blocks.Length()
	return nil
}

func (s *LocateStep) dump(index int, markup string) (string, error) {
	if err := os.MkdirAll(s.dumpDir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(s.dumpDir, DumpFileName(index))
	if err := os.WriteFile(path, []byte(markup), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// DumpFileName returns the dump file name for a page index.
func DumpFileName(index int) string {
	return fmt.Sprintf("page-%03d.html", index)
}

// ExtractStep runs the block extractor over every located block in
// document order with a page-scoped dedup set.
type ExtractStep struct {
	extractor *extract.Extractor
	logger    *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates a new extract step.
func NewExtractStep(extractor *extract.Extractor, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extract step. A block that fails as a whole is dropped
// and the remaining blocks are still processed.
func (s *ExtractStep) Do(_ context.Context, state *PageState) error {
	if state.Blocks == nil {
		return nil
	}

	scope := extract.NewScope()
	state.Blocks.Each(func(i int, block *goquery.Selection) {
		res, err := s.extractor.Extract(block, scope)
		if err != nil {
			state.Summary.Dropped++
			s.logger.Warn("block dropped",
				"page", state.Summary.Index,
				"block", i,
				"error", err,
				"markup", outerHTML(block),
			)
			return
		}
		if res.Duplicate {
			state.Summary.Duplicates++
			return
		}
		for _, f := range res.Missing {
			state.Summary.AddMiss(f)
		}
		state.Records = append(state.Records, res.Record)
	})

	state.Summary.Records = len(state.Records)
	return nil
}

func outerHTML(block *goquery.Selection) string {
	markup, err := goquery.OuterHtml(block)
	if err != nil {
		return ""
	}
	return markup
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
