package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/nao1215/portalwatch/internal/captcha"
	"github.com/nao1215/portalwatch/internal/model"
	"github.com/nao1215/portalwatch/internal/pipeline"
	"github.com/nao1215/portalwatch/internal/redirect"
)

// Workflow logs in to the portal and extracts both content pages.
// A Workflow is built for one run; it is not safe for concurrent use.
type Workflow struct {
	origin       *url.URL
	creds        model.Credentials
	variant      model.Variant
	loop         *captcha.Loop
	forceCaptcha bool
	logger       *slog.Logger
	pipeline     *pipeline.Pipeline
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithVariant selects how the content pages are requested and parsed.
func WithVariant(v model.Variant) Option {
	return func(w *Workflow) {
		if v.Valid() {
			w.variant = v
		}
	}
}

// WithCaptchaLoop sets the loop used when the login form asks for a captcha.
func WithCaptchaLoop(loop *captcha.Loop) Option {
	return func(w *Workflow) {
		w.loop = loop
	}
}

// WithCaptchaRequired solves a captcha even when the login form does not
// reference one.
func WithCaptchaRequired(required bool) Option {
	return func(w *Workflow) {
		w.forceCaptcha = required
	}
}

// WithLogger sets the logger used by the workflow and its steps.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// New creates a Workflow that sends every request through session.
func New(origin *url.URL, creds model.Credentials, session Sender, opts ...Option) *Workflow {
	w := &Workflow{
		origin:  origin,
		creds:   creds,
		variant: model.VariantHTML,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	f := &fetcher{session: session, logger: w.logger}
	resolver := redirect.NewResolver(origin)

	w.pipeline = pipeline.New(pipeline.WithLogger(w.logger))
	w.pipeline.AddSteps(
		&HomepageStep{fetcher: f},
		&LoginFormStep{fetcher: f, forceCaptcha: w.forceCaptcha},
		&CredentialsStep{fetcher: f, loop: w.loop},
		&RedirectStep{resolver: resolver},
		&LandingStep{fetcher: f},
		&TopFrameStep{fetcher: f, resolver: resolver},
		newIllegalProgramsStep(f, w.variant),
		newAnnouncementsStep(f, w.variant),
	)
	return w
}

// Steps returns the step names in execution order.
func (w *Workflow) Steps() []string {
	return w.pipeline.StepNames()
}

// Navigate runs every step and returns the navigation state.
// The state is returned even on failure so callers can inspect how far the
// run got; its Result must not be used unless the error is nil.
func (w *Workflow) Navigate(ctx context.Context) (*model.NavigationContext, error) {
	nav := model.NewNavigationContext(w.origin, w.creds, w.variant)
	err := w.pipeline.Execute(ctx, nav)
	return nav, err
}

// Run logs in and returns the extracted entries.
// A result is returned only when every step succeeded.
func (w *Workflow) Run(ctx context.Context) (*model.WorkflowResult, error) {
	nav, err := w.Navigate(ctx)
	if err != nil {
		return nil, err
	}
	result := nav.Result
	return &result, nil
}

// FailedStep returns the name of the step that produced err, or "" when err
// did not come from a workflow step.
func FailedStep(err error) string {
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}
