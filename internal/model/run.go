package model

import (
	"time"

	"github.com/google/uuid"
)

// RunReport is the outcome of one workflow run.
// It is what report writers render and what the history database stores.
type RunReport struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// Profile names the configuration the run was made with,
	// in "username@host" form.
	Profile string `json:"profile"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Success is true when navigation reached its terminal state.
	Success bool `json:"success"`

	// FailedStep names the step that aborted the run, if any.
	FailedStep string `json:"failed_step,omitempty"`

	// Error is the message of the error that aborted the run.
	Error string `json:"error,omitempty"`

	// CaptchaAttempts is the number of captcha recognitions made during login.
	CaptchaAttempts int `json:"captcha_attempts,omitempty"`

	// Result is set only when Success is true.
	Result *WorkflowResult `json:"result,omitempty"`
}

// NewRunReport creates a report for a run that starts now.
func NewRunReport(profile string, now time.Time) *RunReport {
	return &RunReport{
		ID:        uuid.NewString(),
		Profile:   profile,
		StartedAt: now,
	}
}

// Succeed marks the run as completed with result.
func (r *RunReport) Succeed(result *WorkflowResult, now time.Time) {
	r.Success = true
	r.Result = result
	r.FailedStep = ""
	r.Error = ""
	r.FinishedAt = now
}

// Fail marks the run as aborted at step with err.
// No partial result is kept.
func (r *RunReport) Fail(step string, err error, now time.Time) {
	r.Success = false
	r.Result = nil
	r.FailedStep = step
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = now
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ProfileName builds the profile identifier for an account on a portal host.
func ProfileName(username, host string) string {
	return username + "@" + host
}
