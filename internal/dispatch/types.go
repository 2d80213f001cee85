// Package dispatch sends one message to many recipients in fixed-size
// batches, retrying each recipient independently and folding every outcome
// into a single report.
package dispatch

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoRecipients is returned by Dispatch for a request without recipients.
var ErrNoRecipients = errors.New("dispatch: no recipients")

// Request is one dispatch run's input. Build it with NewRequest; it is not
// modified afterwards.
type Request struct {
	RunID      uuid.UUID
	From       string
	Subject    string
	Body       string
	HTML       bool
	Recipients []string
}

// NewRequest copies recipients so later changes by the caller cannot leak
// into a running dispatch.
func NewRequest(from, subject, body string, html bool, recipients []string) Request {
	rs := make([]string, len(recipients))
	copy(rs, recipients)
	return Request{
		RunID:      uuid.New(),
		From:       from,
		Subject:    subject,
		Body:       body,
		HTML:       html,
		Recipients: rs,
	}
}

// Outcome is the final result for one recipient.
type Outcome struct {
	Index     int
	Recipient string
	Succeeded bool
	// Attempts is the number of provider calls made; 0 only when the run was
	// cancelled before this recipient's batch started.
	Attempts    int
	Err         error
	ErrorDetail string
}

// Failure pairs a recipient with the reason its last attempt failed.
type Failure struct {
	Recipient string `json:"recipient"`
	Detail    string `json:"detail"`
}

// Report summarises a finished dispatch run. Dispatch returns it by value
// once the run is over.
type Report struct {
	RunID        uuid.UUID `json:"run_id"`
	Total        int       `json:"total"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	Successes    []string  `json:"successes"`
	Failures     []Failure `json:"failures"`
	Batches      int       `json:"batches"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// Duration is the wall time between the first batch starting and the last
// outcome being folded.
func (r Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// DurationSeconds is Duration in (fractional) seconds.
func (r Report) DurationSeconds() float64 {
	return r.Duration().Seconds()
}

func (r *Report) add(o Outcome) {
	if o.Succeeded {
		r.SuccessCount++
		r.Successes = append(r.Successes, o.Recipient)
		return
	}
	r.FailureCount++
	r.Failures = append(r.Failures, Failure{Recipient: o.Recipient, Detail: o.ErrorDetail})
}

// EventKind tells observers what an Event describes.
type EventKind int

const (
	// EventBatchStarted is emitted before a batch's sends are issued.
	EventBatchStarted EventKind = iota
	// EventOutcome is emitted once per recipient, in input order.
	EventOutcome
)

// Event is a progress notification emitted while a dispatch runs.
type Event struct {
	Kind       EventKind
	RunID      uuid.UUID
	Batch      int // 1-based
	BatchCount int
	// First and Last are the 1-based recipient positions covered by the batch.
	First, Last int
	Total       int
	Outcome     Outcome
}

// Observer receives progress events. Events are delivered from the
// dispatcher's own goroutine, one at a time.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
