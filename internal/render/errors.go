package render

import "errors"

var (
	// ErrLaunch is returned when the rendering engine cannot be started.
	// The run cannot proceed.
	ErrLaunch = errors.New("failed to start renderer")

	// ErrNavigate is returned when a page cannot be loaded.
	ErrNavigate = errors.New("failed to load page")

	// ErrStatus is returned when the server answers with an error status.
	ErrStatus = errors.New("unexpected HTTP status")

	// ErrWaitTimeout is returned by Page.WaitFor when nothing matched in time.
	ErrWaitTimeout = errors.New("timed out waiting for element")

	// ErrInteractionUnsupported is returned by renderers that cannot click.
	ErrInteractionUnsupported = errors.New("renderer does not support interaction")

	// ErrClosed is returned when a closed renderer is used.
	ErrClosed = errors.New("renderer is closed")

	// ErrUnknownRenderer is returned by ParseKind.
	ErrUnknownRenderer = errors.New("unknown renderer (use browser or static)")
)
