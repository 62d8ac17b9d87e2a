package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/portalwatch/internal/model"
)

// Step defines the interface that all navigation steps must implement.
// Steps are executed in sequence, each one reading the navigation state left
// by the previous step and advancing it.
type Step interface {
	// Do executes the step. Any error aborts the run.
	Do(ctx context.Context, nav *model.NavigationContext) error

	// Name returns the step's name for logging and failure reports.
	Name() string
}

// StepError records which step aborted a run.
type StepError struct {
	// Step is the name of the failed step.
	Step string
	// Err is the error the step returned.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap returns the step's error so errors.Is and errors.As see through it.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline orchestrates the execution of navigation steps.
// It is fail-fast: the first failing step stops the run.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends steps to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against nav. The context is checked
// before each step, so a cancelled run fails on the step about to start.
//
// The first failure is returned as a *StepError and no later step runs.
func (p *Pipeline) Execute(ctx context.Context, nav *model.NavigationContext) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("navigation cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return &StepError{Step: step.Name(), Err: ctx.Err()}
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"origin", nav.Origin.Host,
		)

		if err := step.Do(ctx, nav); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"origin", nav.Origin.Host,
				"error", err,
			)
			return &StepError{Step: step.Name(), Err: err}
		}

		nav.Completed = append(nav.Completed, step.Name())
		p.logger.Debug("step completed",
			"step", step.Name(),
			"origin", nav.Origin.Host,
		)
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
