package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/portalwatch/internal/model"
	"golang.org/x/sync/errgroup"
)

// RunFunc runs the complete workflow for one profile and reports the outcome.
// It never returns nil; failures are recorded in the report.
type RunFunc func(ctx context.Context, profile string) *model.RunReport

// BatchProcessor runs the workflow for several independent profiles.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	// run executes one profile.
	run RunFunc

	// concurrency is the maximum number of profiles run at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed run reports, in profile order.
	results []*model.RunReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 1: profiles run one after another.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor that calls run per profile.
func NewBatchProcessor(run RunFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		run:         run,
		concurrency: 1,
		results:     make([]*model.RunReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every profile and returns their reports in input order.
// A failed run does not stop the others. The error is non-nil only when ctx
// was cancelled before every profile started; reports of profiles that never
// ran are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, profiles []string) ([]*model.RunReport, error) {
	bp.logger.Info("starting batch",
		"profiles", len(profiles),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]*model.RunReport, len(profiles))

	err := bp.ProcessBatchWithCallback(ctx, profiles, func(report *model.RunReport, index int) {
		bp.mu.Lock()
		bp.results[index] = report
		bp.mu.Unlock()
	})

	bp.logger.Info("batch complete",
		"profiles", len(profiles),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback runs every profile and calls callback with each
// report as soon as its run finishes.
//
// The callback is called from the goroutine that ran the profile, so it must
// be safe for concurrent use when concurrency is above 1.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	profiles []string,
	callback func(report *model.RunReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, profile := range profiles {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("running profile",
				"profile", profile,
				"index", i+1,
				"total", len(profiles),
			)

			report := bp.run(ctx, profile)
			if !report.Success {
				// Recorded in the report; other profiles keep running.
				bp.logger.Warn("run failed",
					"profile", profile,
					"step", report.FailedStep,
					"error", report.Error,
				)
			}

			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
