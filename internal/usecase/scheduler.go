package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// Scheduler wires the interval driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	source   ports.RunConfigSource
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, source ports.RunConfigSource, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, source: source, logger: logger}
}

// Start registers the pipeline with the provided scheduler. Each trigger
// reloads the run configuration.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil || s.source == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.pipeline.RunFrom(ctx, s.source)
		if err != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled run complete", "trigger", trigger, "run_id", report.RunID, "upserted", len(report.Published))
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
