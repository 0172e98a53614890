package extract

import "errors"

var (
	// ErrEmptyBlock is returned when Extract is given a selection with no nodes.
	ErrEmptyBlock = errors.New("empty content block")

	// ErrBlockFailed is returned when assembling a record fails unexpectedly.
	// The block is dropped; other blocks on the page are unaffected.
	ErrBlockFailed = errors.New("block extraction failed")

	// ErrInvalidSchema is returned by Schema.Validate.
	ErrInvalidSchema = errors.New("invalid page schema")
)
