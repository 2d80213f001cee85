package dispatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/email"
	"github.com/gsarma/mailblast/internal/retry"
)

// DefaultSendTimeout bounds a single provider call.
const DefaultSendTimeout = 30 * time.Second

// Sender sends the request's message to one recipient and reports the final
// outcome after any retries.
type Sender interface {
	Send(ctx context.Context, index int, recipient string, req Request) Outcome
}

// RetryingSender wraps an email.Provider with a per-recipient retry budget and
// a timeout on every attempt.
type RetryingSender struct {
	provider email.Provider
	policy   retry.Policy
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRetryingSender(provider email.Provider, policy retry.Policy, timeout time.Duration, logger *zap.Logger) *RetryingSender {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingSender{provider: provider, policy: policy, timeout: timeout, logger: logger}
}

func (s *RetryingSender) Send(ctx context.Context, index int, recipient string, req Request) Outcome {
	msg := email.Message{
		From:    req.From,
		To:      []string{recipient},
		Subject: req.Subject,
		Body:    req.Body,
		HTML:    req.HTML,
	}
	log := s.logger.With(zap.String("run_id", req.RunID.String()), zap.String("recipient", recipient))

	attempts, err := retry.Do(ctx, s.policy, func(ctx context.Context, attempt int) error {
		err := s.attempt(ctx, msg)
		if err != nil && attempt < s.policy.MaxAttempts {
			log.Warn("send attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", s.policy.Delay),
				zap.Error(err))
		}
		return err
	})

	out := Outcome{Index: index, Recipient: recipient, Attempts: attempts}
	if err != nil {
		out.Err = err
		out.ErrorDetail = err.Error()
		log.Error("send failed", zap.Int("attempts", attempts), zap.Error(err))
		return out
	}
	out.Succeeded = true
	log.Debug("email sent", zap.Int("attempts", attempts))
	return out
}

func (s *RetryingSender) attempt(ctx context.Context, msg email.Message) error {
	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.provider.Send(actx, msg)
	if err == nil {
		return nil
	}
	// Only this attempt's own deadline counts as a timeout; a cancelled run is not.
	if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		var te *email.TimeoutError
		if errors.As(err, &te) {
			if te.After == 0 {
				te.After = s.timeout
			}
			return err
		}
		return &email.TimeoutError{Provider: providerName(err), After: s.timeout, Err: err}
	}
	return err
}

func providerName(err error) string {
	var pe *email.ProviderError
	if errors.As(err, &pe) && pe.Provider != "" {
		return pe.Provider
	}
	return "provider"
}
