package notify

import "errors"

var (
	// ErrUnknownService is returned when a mail service name is not known.
	ErrUnknownService = errors.New("unknown mail service")

	// ErrNoRecipient is returned when a mail has nowhere to go.
	ErrNoRecipient = errors.New("no mail recipient")

	// ErrNoServer is returned when neither a service nor an SMTP host is set.
	ErrNoServer = errors.New("no SMTP server configured")
)
