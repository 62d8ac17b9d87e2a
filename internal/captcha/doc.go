// Package captcha solves the portal's image verification during login.
//
// The Loop fetches a captcha image, asks a Recognizer for its text and submits
// the credentials with that text. Each submission response is sorted by
// Classify into one of three verdicts:
//   - Accepted: the portal redirected, login succeeded
//   - InvalidCode: the portal reported a wrong verification code
//   - Rejected: the portal refused the login for any other reason
//
// Only InvalidCode is retried, up to a bounded number of attempts. This is
// the only retry in the login workflow.
package captcha
