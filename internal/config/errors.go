package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrNoAccount is returned when the portal username or password is missing.
	ErrNoAccount = errors.New("no account: set account.username and account.password")

	// ErrInvalidOrigin is returned when portal.origin is not an http(s) URL with a host.
	ErrInvalidOrigin = errors.New("invalid portal origin")

	// ErrInvalidVariant is returned when portal.variant is neither html nor jsonp.
	ErrInvalidVariant = errors.New("invalid portal variant: must be html or jsonp")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRequestDelay is returned when the request delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidRequestDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidProxy is returned when http.socksProxy cannot be used.
	ErrInvalidProxy = errors.New("invalid socks proxy")

	// ErrInvalidCaptchaAttempts is returned when captcha.maxAttempts is not positive.
	ErrInvalidCaptchaAttempts = errors.New("invalid captcha attempts: must be positive")

	// ErrNoOCRCommand is returned when captcha solving is forced without an OCR command.
	ErrNoOCRCommand = errors.New("captcha enabled but captcha.ocrCommand is empty")

	// ErrInvalidMail is returned when a receiver is set but no server can be resolved.
	ErrInvalidMail = errors.New("invalid mail settings")
)
