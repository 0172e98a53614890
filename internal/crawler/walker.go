package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zomer-g/hesdermutne/internal/extract"
	"github.com/zomer-g/hesdermutne/internal/model"
	"github.com/zomer-g/hesdermutne/internal/pipeline"
	"github.com/zomer-g/hesdermutne/internal/render"
)

// SkipParam is the query parameter carrying the pagination offset.
const SkipParam = "skip"

// Walker visits listing pages in order and collects their records.
//
// Pages are processed one at a time. The walk ends on the first page that
// yields no records, on a page that cannot be fetched, after the end page
// when one is set, or when the context is cancelled.
type Walker struct {
	renderer render.Renderer
	baseURL  string

	schema    extract.Schema
	startPage int
	endPage   int
	pageSize  int

	readyTimeout time.Duration
	settleDelay  time.Duration
	expandDelay  time.Duration
	clickTimeout time.Duration
	dumpDir      string

	logger   *slog.Logger
	pipeline *pipeline.Pipeline
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithSchema sets the listing layout.
func WithSchema(s extract.Schema) WalkerOption {
	return func(w *Walker) {
		w.schema = s
	}
}

// WithStartPage sets the first page index (1-based).
func WithStartPage(index int) WalkerOption {
	return func(w *Walker) {
		w.startPage = index
	}
}

// WithEndPage sets the last page index. 0 means no bound.
func WithEndPage(index int) WalkerOption {
	return func(w *Walker) {
		w.endPage = index
	}
}

// WithPageSize sets the number of records per listing page.
func WithPageSize(n int) WalkerOption {
	return func(w *Walker) {
		w.pageSize = n
	}
}

// WithReadyTimeout sets the bounded wait for the first block of a page.
func WithReadyTimeout(d time.Duration) WalkerOption {
	return func(w *Walker) {
		w.readyTimeout = d
	}
}

// WithSettleDelay sets the fixed wait used when the ready timeout is 0.
func WithSettleDelay(d time.Duration) WalkerOption {
	return func(w *Walker) {
		w.settleDelay = d
	}
}

// WithExpandDelay sets the pause after each toggle click.
func WithExpandDelay(d time.Duration) WalkerOption {
	return func(w *Walker) {
		w.expandDelay = d
	}
}

// WithClickTimeout bounds each toggle click.
func WithClickTimeout(d time.Duration) WalkerOption {
	return func(w *Walker) {
		w.clickTimeout = d
	}
}

// WithDumpDir enables raw markup dumps into dir.
func WithDumpDir(dir string) WalkerOption {
	return func(w *Walker) {
		w.dumpDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker creates a Walker over the listing at baseURL.
// The renderer is owned by the caller and is not closed by the walker.
func NewWalker(renderer render.Renderer, baseURL string, opts ...WalkerOption) (*Walker, error) {
	w := &Walker{
		renderer:     renderer,
		baseURL:      baseURL,
		schema:       extract.DefaultSchema(),
		startPage:    1,
		pageSize:     10,
		readyTimeout: 15 * time.Second,
		settleDelay:  5 * time.Second,
		expandDelay:  500 * time.Millisecond,
		clickTimeout: 5 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.startPage < 1 {
		return nil, fmt.Errorf("invalid start page %d", w.startPage)
	}
	if w.pageSize < 1 {
		return nil, fmt.Errorf("invalid page size %d", w.pageSize)
	}
	if _, err := PageURL(baseURL, w.startPage, w.pageSize); err != nil {
		return nil, err
	}

	extractor, err := extract.NewExtractor(w.schema, extract.WithLogger(w.logger))
	if err != nil {
		return nil, err
	}

	w.pipeline = pipeline.New(pipeline.WithLogger(w.logger))
	w.pipeline.AddSteps(
		pipeline.NewFetchStep(renderer, w.schema.Selectors.Block,
			pipeline.WithReadyTimeout(w.readyTimeout),
			pipeline.WithSettleDelay(w.settleDelay),
			pipeline.WithFetchLogger(w.logger),
		),
		pipeline.NewExpandStep(w.schema.Selectors.Toggle,
			pipeline.WithExpandDelay(w.expandDelay),
			pipeline.WithClickTimeout(w.clickTimeout),
			pipeline.WithExpandLogger(w.logger),
		),
		pipeline.NewLocateStep(w.schema.Selectors.Block,
			pipeline.WithDumpDir(w.dumpDir),
			pipeline.WithLocateLogger(w.logger),
		),
		pipeline.NewExtractStep(extractor, pipeline.WithExtractLogger(w.logger)),
	)
	return w, nil
}

// Steps returns the names of the per-page steps in execution order.
func (w *Walker) Steps() []string {
	return w.pipeline.StepNames()
}

// Walk visits pages from the start page until a stop condition is met and
// returns the run with every record collected, in page-then-block order.
//
// A page that fails to render ends the walk without an error: the failure
// is recorded on the page summary. On cancellation Walk returns the run
// gathered so far together with the context error.
func (w *Walker) Walk(ctx context.Context) (*model.Run, error) {
	run := model.NewRun(uuid.NewString(), w.baseURL)
	run.StartedAt = time.Now()
	defer func() {
		run.FinishedAt = time.Now()
	}()

	w.logger.Info("walk started",
		"run", run.ID,
		"url", w.baseURL,
		"start_page", w.startPage,
		"end_page", w.endPage,
	)

	for index := w.startPage; ; index++ {
		if err := ctx.Err(); err != nil {
			run.StopReason = model.StopCancelled
			return run, err
		}

		pageURL, err := PageURL(w.baseURL, index, w.pageSize)
		if err != nil {
			return run, err
		}

		state := pipeline.NewPageState(index, pageURL)
		execErr := w.pipeline.Execute(ctx, state)
		if err := state.Close(); err != nil {
			w.logger.Debug("failed to close page", "page", index, "error", err)
		}

		run.Pages = append(run.Pages, state.Summary)
		run.Records = append(run.Records, state.Records...)

		if execErr != nil {
			if ctx.Err() != nil {
				run.StopReason = model.StopCancelled
				return run, ctx.Err()
			}
			w.logger.Error("page failed, stopping",
				"page", index,
				"url", pageURL,
				"error", execErr,
			)
			run.StopReason = model.StopFetchFailed
			return run, nil
		}

		w.logger.Info("page processed",
			"page", index,
			"blocks", state.Summary.Blocks,
			"records", state.Summary.Records,
			"duplicates", state.Summary.Duplicates,
			"dropped", state.Summary.Dropped,
		)

		if len(state.Records) == 0 {
			run.StopReason = model.StopEmptyPage
			return run, nil
		}
		if w.endPage > 0 && index >= w.endPage {
			run.StopReason = model.StopEndBound
			return run, nil
		}
	}
}

// PageURL returns the listing URL of the page with the given 1-based index.
// The skip parameter is set to (index-1)*pageSize; other query parameters
// are kept.
func PageURL(base string, index, pageSize int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid listing URL %q: scheme must be http or https", base)
	}

	q := u.Query()
	q.Set(SkipParam, strconv.Itoa((index-1)*pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
