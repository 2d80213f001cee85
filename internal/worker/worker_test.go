package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/pipeline"
	"github.com/gsarma/mailblast/internal/worker"
)

// stubRunner implements worker.Runner for tests.
type stubRunner struct {
	mu    sync.Mutex
	runFn func(ctx context.Context, in pipeline.Input) (dispatch.Report, error)
	calls int
	last  pipeline.Input
}

func (s *stubRunner) Run(ctx context.Context, in pipeline.Input, _ ...dispatch.Observer) (dispatch.Report, error) {
	s.mu.Lock()
	s.calls++
	s.last = in
	fn := s.runFn
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, in)
	}
	return dispatch.Report{Total: 1, SuccessCount: 1}, nil
}

func (s *stubRunner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Compile-time check: stubRunner satisfies worker.Runner.
var _ worker.Runner = (*stubRunner)(nil)

func TestScheduler_DisabledReturnsImmediately(t *testing.T) {
	r := &stubRunner{}
	done := make(chan struct{})
	go func() {
		worker.New(r, 0, nil).Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start with zero interval should return immediately")
	}
	if r.count() != 0 {
		t.Errorf("expected no runs, got %d", r.count())
	}
}

func TestScheduler_RunsOnEveryTick(t *testing.T) {
	ran := make(chan struct{}, 10)
	r := &stubRunner{runFn: func(context.Context, pipeline.Input) (dispatch.Report, error) {
		ran <- struct{}{}
		return dispatch.Report{}, nil
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go worker.New(r, 20*time.Millisecond, nil).Start(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-ran:
		case <-ctx.Done():
			t.Fatalf("timed out waiting for run %d", i+1)
		}
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	r := &stubRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.New(r, time.Hour, nil).Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return after cancel")
	}
}

func TestScheduler_RunOnceUsesDefaults(t *testing.T) {
	r := &stubRunner{}
	report, err := worker.New(r, 0, nil).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.SuccessCount != 1 {
		t.Errorf("expected report from runner, got %+v", report)
	}
	if r.last != (pipeline.Input{}) {
		t.Errorf("scheduled runs should take every value from defaults, got %+v", r.last)
	}
}

func TestScheduler_RunOnceReturnsRunnerError(t *testing.T) {
	want := &pipeline.ValidationError{Field: "toEmails", Reason: "no valid recipients"}
	r := &stubRunner{runFn: func(context.Context, pipeline.Input) (dispatch.Report, error) {
		return dispatch.Report{}, want
	}}
	_, err := worker.New(r, 0, nil).RunOnce(context.Background())
	if !errors.Is(err, want) {
		t.Fatalf("expected runner error, got %v", err)
	}
}
