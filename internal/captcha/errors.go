package captcha

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptchaExhausted is returned when every attempt ended with an
	// invalid verification code.
	ErrCaptchaExhausted = errors.New("captcha attempts exhausted")

	// ErrLoginRejected is returned when the portal refused the login for a
	// reason other than a wrong verification code.
	ErrLoginRejected = errors.New("login rejected")

	// ErrNoRecognizer is returned when a captcha must be solved but no
	// recognizer is configured.
	ErrNoRecognizer = errors.New("no captcha recognizer configured")
)

// LoginRejectedError carries the portal's own error message.
type LoginRejectedError struct {
	Message string
}

// Error implements the error interface.
func (e *LoginRejectedError) Error() string {
	return fmt.Sprintf("login rejected: %s", e.Message)
}

// Is reports whether target is ErrLoginRejected.
func (e *LoginRejectedError) Is(target error) bool {
	return target == ErrLoginRejected
}
