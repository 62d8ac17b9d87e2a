// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - HTTP headers (Authorization, Cookie, Set-Cookie)
//   - the portal's login fields (pmail, pcode, validateCode) and passwords
//   - session identifiers and bearer or basic credentials
//   - login parameters embedded in logged URLs and error messages
//
// Even in verbose mode, sensitive values are masked so that logs can be
// shared when a run fails.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Debug("request",
//	    "url", "http://portal/right/loginExcute.jsp?pmail=a&pcode=b",
//	)
//	// url=http://portal/right/loginExcute.jsp?pmail=***REDACTED***&pcode=***REDACTED***
//	slog.SetDefault(logger)
package log
