package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport is returned for network, timeout and cancellation failures.
	ErrTransport = errors.New("transport error")

	// ErrUnexpectedStatus is returned when a response status is outside the
	// accepted range of the request.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnsupportedProxy is returned for proxy URIs that are not SOCKS5.
	ErrUnsupportedProxy = errors.New("unsupported proxy scheme: expected socks5, socks5h or socks")

	// ErrInvalidCharset is returned when the configured charset is unknown.
	ErrInvalidCharset = errors.New("unknown charset")
)

// TransportError wraps a failure that prevented a response from arriving.
type TransportError struct {
	// Method and URL identify the failed request.
	Method string
	URL    string
	// Err is the underlying network or context error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// UnexpectedStatusError reports a response whose status was not accepted.
type UnexpectedStatusError struct {
	Method string
	URL    string
	Status int
}

// Error implements the error interface.
func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
}

// Is reports whether target is ErrUnexpectedStatus.
func (e *UnexpectedStatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
