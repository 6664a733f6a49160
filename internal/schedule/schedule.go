// Package schedule wires up the cron job that runs the nightly ingest and
// qualification passes.
package schedule

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one nightly pass. Errors are logged, never fatal to the loop.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner wraps robfig/cron and runs the registered jobs in order on each tick.
type Runner struct {
	cron   *cron.Cron
	spec   string
	jobs   []Job
	logger *slog.Logger
}

// NewRunner creates a runner for the given cron spec (e.g. "0 2 * * *").
func NewRunner(spec string, jobs []Job, logger *slog.Logger) *Runner {
	return &Runner{
		cron:   cron.New(),
		spec:   spec,
		jobs:   jobs,
		logger: logger,
	}
}

// Start registers the tick and starts the scheduler, then blocks until the
// context is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		r.tick(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	r.logger.Info("scheduler started", "spec", r.spec)

	<-ctx.Done()

	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.logger.Info("scheduler stopped")
	return nil
}

func (r *Runner) tick(ctx context.Context) {
	r.logger.Info("scheduled cycle starting", "jobs", len(r.jobs))
	for _, job := range r.jobs {
		if ctx.Err() != nil {
			return
		}
		if err := job.Run(ctx); err != nil {
			r.logger.Error("scheduled job failed", "job", job.Name, "error", err)
		}
	}
	r.logger.Info("scheduled cycle complete")
}
