package pipeline

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/zomer-g/hesdermutne/internal/model"
	"github.com/zomer-g/hesdermutne/internal/render"
)

// PageState carries one listing page through the steps.
// Each step reads what earlier steps produced and adds its own output.
type PageState struct {
	// Summary collects the page statistics. Always non-nil.
	Summary *model.PageSummary

	// Page is the rendered page, set by FetchStep.
	Page render.Page

	// Blocks holds the located content blocks, set by LocateStep.
	Blocks *goquery.Selection

	// Records holds the page's records in block order, set by ExtractStep.
	Records []model.Record
}

// NewPageState creates the state for the page with the given index and URL.
func NewPageState(index int, url string) *PageState {
	return &PageState{
		Summary: model.NewPageSummary(index, url),
		Records: make([]model.Record, 0),
	}
}

// Close releases the rendered page, if any.
func (s *PageState) Close() error {
	if s.Page == nil {
		return nil
	}
	err := s.Page.Close()
	s.Page = nil
	return err
}

// Step is one stage of processing a listing page.
type Step interface {
	// Do executes the step. Recoverable problems (a failed toggle, a
	// dropped block) are recorded in the page summary and Do returns nil.
	// An error means the page could not be processed at all.
	Do(ctx context.Context, state *PageState) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs steps in order over a page.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stops at the first failure.
// The failure is recorded on the page summary and returned.
// Cancellation is checked before each step.
func (p *Pipeline) Execute(ctx context.Context, state *PageState) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("page cancelled",
				"step", step.Name(),
				"page", state.Summary.Index,
			)
			state.Summary.Error = err.Error()
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"page", state.Summary.Index,
		)

		if err := step.Do(ctx, state); err != nil {
			state.Summary.Error = err.Error()
			return err
		}
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
