package email

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderError is returned when a provider rejects a send attempt
// (bad request, auth failure, rate limit, transport failure).
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the failure happened before an HTTP status was read
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TimeoutError is returned when a single attempt exceeded its deadline.
type TimeoutError struct {
	Provider string
	After    time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s: request timed out after %s", e.Provider, e.After)
	}
	return fmt.Sprintf("%s: request timed out", e.Provider)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout lets callers check for timeouts through a net.Error-style interface.
func (e *TimeoutError) Timeout() bool { return true }

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsProviderError reports whether err is, or wraps, a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// classify turns a transport-level error into a TimeoutError when the
// attempt's context deadline expired, and a ProviderError otherwise.
func classify(ctx context.Context, provider string, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeout(err) || IsProviderError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Provider: provider, Err: err}
	}
	return &ProviderError{Provider: provider, Message: err.Error(), Err: err}
}
