package portal

import (
	"errors"
	"fmt"
)

// ErrUnexpectedPageShape is returned when a fetched page lacks the marker
// that proves the workflow reached the expected state.
var ErrUnexpectedPageShape = errors.New("unexpected page shape")

// PageShapeError names the step whose page lacked its marker.
type PageShapeError struct {
	// Step is the name of the step that fetched the page.
	Step string
	// Marker is the missing substring. Empty means the body was empty.
	Marker string
}

// Error implements the error interface.
func (e *PageShapeError) Error() string {
	if e.Marker == "" {
		return fmt.Sprintf("unexpected page shape at %s: empty body", e.Step)
	}
	return fmt.Sprintf("unexpected page shape at %s: missing %q", e.Step, e.Marker)
}

// Is reports whether target is ErrUnexpectedPageShape.
func (e *PageShapeError) Is(target error) bool {
	return target == ErrUnexpectedPageShape
}
