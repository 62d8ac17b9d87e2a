package redirect

import (
	"errors"
	"fmt"
)

var (
	// ErrRedirectHostMismatch is returned when a location points to a host
	// other than the portal origin.
	ErrRedirectHostMismatch = errors.New("redirect host mismatch")

	// ErrEmptyLocation is returned for an empty location value.
	ErrEmptyLocation = errors.New("empty location")

	// ErrInvalidLocation is returned when a location cannot be parsed as a URL.
	ErrInvalidLocation = errors.New("invalid location")
)

// HostMismatchError reports a location that leaves the portal origin.
type HostMismatchError struct {
	// Location is the rejected value as received.
	Location string
	// Host is the host the location pointed to.
	Host string
	// Want is the portal origin host.
	Want string
}

// Error implements the error interface.
func (e *HostMismatchError) Error() string {
	return fmt.Sprintf("redirect host mismatch: %q points to %s, want %s", e.Location, e.Host, e.Want)
}

// Is reports whether target is ErrRedirectHostMismatch.
func (e *HostMismatchError) Is(target error) bool {
	return target == ErrRedirectHostMismatch
}
