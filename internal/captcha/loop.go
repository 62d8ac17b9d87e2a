package captcha

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultMaxAttempts is the number of recognitions tried before giving up.
const DefaultMaxAttempts = 3

// Outcome tags a single Attempt.
type Outcome int

const (
	// OutcomeAccepted means the portal accepted the submission.
	OutcomeAccepted Outcome = iota
	// OutcomeRejectedByServer means the portal reported a wrong code.
	OutcomeRejectedByServer
	// OutcomeOtherError means the attempt failed for any other reason.
	OutcomeOtherError
)

// String returns the name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejectedByServer:
		return "rejected_by_server"
	case OutcomeOtherError:
		return "other_error"
	default:
		return "unknown"
	}
}

// Attempt is one recognition attempt. It is handed to the attempt hook and
// then discarded.
type Attempt struct {
	// Number counts attempts from 1.
	Number int
	// Image is the fetched captcha image.
	Image []byte
	// Text is the recognized code, possibly empty.
	Text string
	// Outcome is how the attempt ended.
	Outcome Outcome
}

// Challenge binds the loop to one login form.
type Challenge struct {
	// FetchImage downloads a fresh captcha image.
	FetchImage func(ctx context.Context) ([]byte, error)
	// Submit sends the credentials with code and classifies the response.
	Submit func(ctx context.Context, code string) (Verdict, error)
}

// Result is a successful resolution.
type Result struct {
	// Location is the redirect target returned by the accepted submission.
	Location string
	// Attempts is the number of attempts made, including the accepted one.
	Attempts int
}

// Loop drives captcha resolution.
type Loop struct {
	recognizer  Recognizer
	maxAttempts int
	logger      *slog.Logger
	onAttempt   func(Attempt)
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithMaxAttempts sets the attempt bound. Values below 1 keep the default.
func WithMaxAttempts(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithAttemptHook registers fn to observe every finished attempt.
func WithAttemptHook(fn func(Attempt)) LoopOption {
	return func(l *Loop) {
		l.onAttempt = fn
	}
}

// NewLoop creates a Loop that uses recognizer for every attempt.
func NewLoop(recognizer Recognizer, opts ...LoopOption) *Loop {
	l := &Loop{
		recognizer:  recognizer,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxAttempts returns the attempt bound.
func (l *Loop) MaxAttempts() int {
	return l.maxAttempts
}

// Resolve runs the loop until the portal accepts a code, reports a
// non-retryable error, or the attempt bound is reached.
//
// The returned attempt count is valid even when an error is returned.
func (l *Loop) Resolve(ctx context.Context, ch Challenge) (Result, error) {
	if l.recognizer == nil {
		return Result{}, ErrNoRecognizer
	}

	var res Result
	for n := 1; n <= l.maxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempts = n
		attempt := Attempt{Number: n, Outcome: OutcomeOtherError}

		image, err := ch.FetchImage(ctx)
		if err != nil {
			l.finish(attempt)
			return res, fmt.Errorf("failed to fetch captcha image: %w", err)
		}
		attempt.Image = image

		text, err := l.recognizer.Recognize(ctx, image)
		if err != nil {
			l.finish(attempt)
			return res, fmt.Errorf("failed to recognize captcha: %w", err)
		}
		attempt.Text = text

		verdict, err := ch.Submit(ctx, text)
		if err != nil {
			l.finish(attempt)
			return res, err
		}

		switch verdict.Kind {
		case Accepted:
			attempt.Outcome = OutcomeAccepted
			l.finish(attempt)
			res.Location = verdict.Location
			return res, nil
		case InvalidCode:
			attempt.Outcome = OutcomeRejectedByServer
			l.finish(attempt)
			l.logger.Debug("captcha code rejected", "attempt", n, "max_attempts", l.maxAttempts)
		default:
			l.finish(attempt)
			return res, &LoginRejectedError{Message: verdict.Message}
		}
	}
	return res, fmt.Errorf("%w after %d attempts", ErrCaptchaExhausted, l.maxAttempts)
}

func (l *Loop) finish(a Attempt) {
	if l.onAttempt != nil {
		l.onAttempt(a)
	}
}
