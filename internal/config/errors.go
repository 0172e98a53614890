package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoBaseURL is returned when no listing URL is given.
	ErrNoBaseURL = errors.New("no listing URL specified: pass it as an argument or set baseURL in the config file")

	// ErrInvalidBaseURL is returned when the listing URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid listing URL: must be an absolute http or https URL")

	// ErrNoOutputFile is returned when the output path is empty.
	ErrNoOutputFile = errors.New("no output file specified")

	// ErrInvalidStartPage is returned when the start page is below 1.
	ErrInvalidStartPage = errors.New("invalid start page: must be at least 1")

	// ErrInvalidEndPage is returned when the end page is negative or before the start page.
	ErrInvalidEndPage = errors.New("invalid end page: must be 0 (no bound) or not before the start page")

	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidRenderer is returned for an unknown renderer name.
	ErrInvalidRenderer = errors.New("invalid renderer: use browser or static")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when a wait or delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: waits and delays must be non-negative")

	// ErrNoDBDir is returned when history is enabled without a directory.
	ErrNoDBDir = errors.New("no database directory specified")
)
