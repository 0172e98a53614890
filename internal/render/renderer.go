package render

import (
	"context"
	"time"
)

// Renderer turns a listing URL into a rendered page.
//
// A Renderer is a process-wide resource: it is created once per run and
// closed exactly once when the run ends.
type Renderer interface {
	// Open loads url and returns the rendered page.
	// The caller must Close the page when done with it.
	Open(ctx context.Context, url string) (Page, error)

	// Close releases the renderer. Calling Close more than once is safe.
	Close() error
}

// Page is one rendered listing page.
type Page interface {
	// Count returns the number of elements matching selector.
	Count(selector string) (int, error)

	// ClickNth triggers the n-th (0-based) element matching selector.
	// Renderers without script execution return ErrInteractionUnsupported.
	ClickNth(selector string, n int, timeout time.Duration) error

	// WaitFor blocks until an element matching selector is attached or
	// timeout elapses, in which case an error wrapping ErrWaitTimeout is
	// returned.
	WaitFor(selector string, timeout time.Duration) error

	// HTML returns the serialized markup of the current DOM.
	HTML() (string, error)

	// Close releases the page.
	Close() error
}

// Kind names a renderer implementation.
type Kind string

const (
	// KindBrowser renders with headless Chromium.
	KindBrowser Kind = "browser"

	// KindStatic fetches markup over plain HTTP without running scripts.
	KindStatic Kind = "static"
)

// ParseKind validates a renderer name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBrowser, KindStatic:
		return Kind(s), nil
	default:
		return "", ErrUnknownRenderer
	}
}
