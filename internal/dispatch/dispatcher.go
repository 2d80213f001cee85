package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize  = 50
	DefaultBatchDelay = time.Second
)

// Options tunes batching. Zero values select the defaults.
type Options struct {
	BatchSize  int
	BatchDelay time.Duration
	// Concurrency caps in-flight sends within a batch; 0 means the batch size.
	Concurrency int
}

// Dispatcher runs a Request through a Sender batch by batch.
type Dispatcher struct {
	sender Sender
	opts   Options
	logger *zap.Logger
	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) error
}

func New(sender Sender, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	if opts.Concurrency <= 0 || opts.Concurrency > opts.BatchSize {
		opts.Concurrency = opts.BatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sender: sender,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		wait:   sleep,
	}
}

// Partition splits n items into consecutive half-open [start, end) ranges of
// at most size items.
func Partition(n, size int) [][2]int {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		batches = append(batches, [2]int{start, end})
	}
	return batches
}

// Dispatch sends req to every recipient and returns the folded report. Batches
// run strictly one after another; recipients within a batch are sent
// concurrently. Observers see one EventBatchStarted per batch and one
// EventOutcome per recipient, in input order.
//
// If ctx is cancelled between batches, the recipients not yet attempted are
// reported as failed and the report is returned with ctx.Err().
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, observers ...Observer) (Report, error) {
	total := len(req.Recipients)
	if total == 0 {
		return Report{}, ErrNoRecipients
	}

	batches := Partition(total, d.opts.BatchSize)
	report := Report{
		RunID:     req.RunID,
		Total:     total,
		Batches:   len(batches),
		Successes: make([]string, 0, total),
		Failures:  make([]Failure, 0),
		StartTime: d.now(),
	}
	emit := func(e Event) {
		e.RunID = req.RunID
		e.BatchCount = len(batches)
		e.Total = total
		for _, o := range observers {
			if o != nil {
				o.Observe(e)
			}
		}
	}
	log := d.logger.With(zap.String("run_id", req.RunID.String()))
	log.Info("dispatch started",
		zap.Int("recipients", total),
		zap.Int("batches", len(batches)),
		zap.Int("batch_size", d.opts.BatchSize))

	outcomes := make([]Outcome, total)
	for b, batch := range batches {
		start, end := batch[0], batch[1]

		if b > 0 && d.opts.BatchDelay > 0 {
			if err := d.wait(ctx, d.opts.BatchDelay); err != nil {
				log.Warn("dispatch cancelled between batches", zap.Int("next_batch", b+1), zap.Error(err))
				d.abandon(&report, req, start, err, emit)
				report.EndTime = d.now()
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			log.Warn("dispatch cancelled before batch", zap.Int("batch", b+1), zap.Error(err))
			d.abandon(&report, req, start, err, emit)
			report.EndTime = d.now()
			return report, err
		}

		log.Info("processing batch",
			zap.Int("batch", b+1),
			zap.Int("first", start+1),
			zap.Int("last", end))
		emit(Event{Kind: EventBatchStarted, Batch: b + 1, First: start + 1, Last: end})

		g := new(errgroup.Group)
		g.SetLimit(d.opts.Concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				outcomes[i] = d.sender.Send(ctx, i, req.Recipients[i], req)
				return nil
			})
		}
		_ = g.Wait()

		for i := start; i < end; i++ {
			report.add(outcomes[i])
			emit(Event{Kind: EventOutcome, Batch: b + 1, First: start + 1, Last: end, Outcome: outcomes[i]})
		}
	}

	report.EndTime = d.now()
	log.Info("dispatch finished",
		zap.Int("succeeded", report.SuccessCount),
		zap.Int("failed", report.FailureCount),
		zap.Duration("duration", report.Duration()))
	return report, nil
}

// abandon records every recipient from index start onwards as failed with
// cause, without calling the sender.
func (d *Dispatcher) abandon(report *Report, req Request, start int, cause error, emit func(Event)) {
	detail := fmt.Sprintf("not attempted: %v", cause)
	for i := start; i < len(req.Recipients); i++ {
		o := Outcome{
			Index:       i,
			Recipient:   req.Recipients[i],
			Err:         cause,
			ErrorDetail: detail,
		}
		report.add(o)
		emit(Event{Kind: EventOutcome, Batch: i/d.opts.BatchSize + 1, Outcome: o})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
