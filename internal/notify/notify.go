// Package notify delivers run reports to an out-of-band channel.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sink delivers a text message somewhere a human will read it.
type Sink interface {
	Notify(ctx context.Context, text string) error
}

// NotificationError is returned when a sink could not deliver a message.
type NotificationError struct {
	Sink       string
	StatusCode int
	Message    string
	Err        error
}

func (e *NotificationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("notify %s: status %d: %s", e.Sink, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notify %s: %s", e.Sink, e.Message)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

type bestEffort struct {
	sink   Sink
	logger *zap.Logger
}

// BestEffort wraps sink so that delivery failures are logged and never
// returned to the caller.
func BestEffort(sink Sink, logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bestEffort{sink: sink, logger: logger}
}

func (b *bestEffort) Notify(ctx context.Context, text string) error {
	if b.sink == nil {
		return nil
	}
	if err := b.sink.Notify(ctx, text); err != nil {
		b.logger.Warn("notification failed", zap.Error(err))
	}
	return nil
}
