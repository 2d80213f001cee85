// Package pipeline turns a submission into a dispatch run: it merges input
// with configured defaults, validates it, dispatches, and notifies.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/notify"
	"github.com/gsarma/mailblast/internal/recipient"
)

// Dispatcher runs a validated request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request, observers ...dispatch.Observer) (dispatch.Report, error)
}

type Options struct {
	Defaults Defaults
	Parse    recipient.ParseOptions
}

// Runner is the orchestrator shared by the HTTP, scheduled and CLI entry
// points.
type Runner struct {
	dispatcher Dispatcher
	sink       notify.Sink
	opts       Options
	logger     *zap.Logger
}

// New returns a Runner. sink failures are logged and never change a run's
// result; a nil sink disables notifications.
func New(d Dispatcher, sink notify.Sink, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = notify.Nop{}
	}
	return &Runner{
		dispatcher: d,
		sink:       notify.BestEffort(sink, logger),
		opts:       opts,
		logger:     logger,
	}
}

// Build validates in against the configured defaults without sending.
func (r *Runner) Build(in Input) (dispatch.Request, error) {
	return BuildRequest(in, r.opts.Defaults, r.opts.Parse)
}

// Run validates in, dispatches it and sends the report (or the error) to the
// notification sink.
//
// A ConfigurationError or ValidationError means nothing was sent. Any other
// error comes with the partial report of a run that was interrupted.
func (r *Runner) Run(ctx context.Context, in Input, observers ...dispatch.Observer) (dispatch.Report, error) {
	// Notifications go out even when the caller's context is already done.
	notifyCtx := context.WithoutCancel(ctx)

	req, err := r.Build(in)
	if err != nil {
		r.logger.Warn("dispatch rejected", zap.Error(err))
		_ = r.sink.Notify(notifyCtx, dispatch.FormatError(err))
		return dispatch.Report{}, err
	}

	report, err := r.dispatcher.Dispatch(ctx, req, observers...)
	if err != nil {
		if errors.Is(err, dispatch.ErrNoRecipients) || report.Total == 0 {
			_ = r.sink.Notify(notifyCtx, dispatch.FormatError(err))
			return report, err
		}
		r.logger.Warn("dispatch interrupted",
			zap.String("run_id", report.RunID.String()),
			zap.Int("failed", report.FailureCount),
			zap.Error(err))
	}
	_ = r.sink.Notify(notifyCtx, dispatch.FormatReport(report))
	return report, err
}
