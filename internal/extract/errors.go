package extract

import "errors"

var (
	// ErrNoRowsFound is returned when markup contains no row delimiter at all.
	// A table whose rows have no cells is empty, not an error.
	ErrNoRowsFound = errors.New("no rows found")

	// ErrInvalidEnvelope is returned when a JSONP body does not wrap the
	// expected callback, does not contain valid JSON, or lacks the expected field.
	ErrInvalidEnvelope = errors.New("invalid JSONP envelope")

	// ErrLinkNotFound is returned when no anchor carries the requested label.
	ErrLinkNotFound = errors.New("link not found")

	// ErrSectionNotFound is returned when the requested container element is absent.
	ErrSectionNotFound = errors.New("section not found")
)
