package model

import (
	"time"
)

// StopReason records why the page walker stopped requesting pages.
type StopReason string

const (
	// StopEmptyPage means a page yielded zero records.
	StopEmptyPage StopReason = "empty-page"

	// StopFetchFailed means a page could not be fetched or rendered.
	// The page counts as empty for termination purposes.
	StopFetchFailed StopReason = "fetch-failed"

	// StopEndBound means the configured last page was processed.
	StopEndBound StopReason = "end-bound"

	// StopCancelled means the run context was cancelled.
	StopCancelled StopReason = "cancelled"
)

// PageSummary holds statistics for one visited listing page.
type PageSummary struct {
	// Index is the 1-based page number.
	Index int `json:"index"`

	// URL is the listing URL including the skip parameter.
	URL string `json:"url"`

	// Blocks is the number of content blocks located on the page.
	Blocks int `json:"blocks"`

	// Records is the number of records the page contributed.
	Records int `json:"records"`

	// Duplicates counts blocks skipped by same-page dedup.
	Duplicates int `json:"duplicates"`

	// Dropped counts blocks whose extraction failed as a whole.
	Dropped int `json:"dropped"`

	// Expanded counts collapsed-content toggles that were triggered.
	Expanded int `json:"expanded"`

	// ExpandFailures counts toggles whose trigger failed.
	ExpandFailures int `json:"expand_failures"`

	// FieldMisses counts, per field key, the records where the field
	// could not be resolved.
	FieldMisses map[string]int `json:"field_misses,omitempty"`

	// Error is the fetch or render error, if any.
	Error string `json:"error,omitempty"`
}

// NewPageSummary creates an empty summary for a page.
func NewPageSummary(index int, url string) *PageSummary {
	return &PageSummary{
		Index:       index,
		URL:         url,
		FieldMisses: make(map[string]int),
	}
}

// AddMiss increments the miss counter of a field.
func (p *PageSummary) AddMiss(f Field) {
	if p.FieldMisses == nil {
		p.FieldMisses = make(map[string]int)
	}
	p.FieldMisses[f.Key()]++
}

// Run is the outcome of one scrape.
type Run struct {
	// ID uniquely identifies the run in the history database.
	ID string `json:"id"`

	// BaseURL is the listing URL without the skip parameter.
	BaseURL string `json:"base_url"`

	// StartedAt is when the first page was requested.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the walker stopped.
	FinishedAt time.Time `json:"finished_at"`

	// StopReason is why the walker stopped.
	StopReason StopReason `json:"stop_reason"`

	// Pages holds one summary per visited page, in visiting order.
	Pages []*PageSummary `json:"pages"`

	// Records is the result set, in page-then-block encounter order.
	Records []Record `json:"-"`
}

// NewRun creates a run for the given listing URL.
func NewRun(id, baseURL string) *Run {
	return &Run{
		ID:      id,
		BaseURL: baseURL,
		Pages:   make([]*PageSummary, 0),
		Records: make([]Record, 0),
	}
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// MissingCaseNumbers counts records carrying the MissingCaseNumber sentinel.
func (r *Run) MissingCaseNumbers() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.HasCaseNumber() {
			n++
		}
	}
	return n
}

// FieldMisses sums the per-field miss counters over all pages.
func (r *Run) FieldMisses() map[string]int {
	total := make(map[string]int)
	for _, p := range r.Pages {
		for k, v := range p.FieldMisses {
			total[k] += v
		}
	}
	return total
}
