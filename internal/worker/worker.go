// Package worker runs dispatches on a fixed schedule using the configured
// default message and recipients.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/pipeline"
)

// Runner runs one dispatch from submitted input.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input, observers ...dispatch.Observer) (dispatch.Report, error)
}

// Scheduler triggers a dispatch every interval. Runs never overlap: a tick
// that arrives while a run is in progress is dropped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
}

func New(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled. A non-positive interval disables the
// scheduler and Start returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("scheduler disabled")
		return
	}
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single scheduled dispatch with all values taken from the
// configured defaults.
func (s *Scheduler) RunOnce(ctx context.Context) (dispatch.Report, error) {
	report, err := s.runner.Run(ctx, pipeline.Input{})
	if err != nil {
		s.logger.Error("scheduled dispatch failed", zap.Error(err))
		return report, err
	}
	s.logger.Info("scheduled dispatch finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("succeeded", report.SuccessCount),
		zap.Int("failed", report.FailureCount))
	return report, nil
}
