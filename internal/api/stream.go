package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/mailblast/internal/dispatch"
)

// streamObserver writes one progress line per dispatch event and flushes
// after each one. The status line is written on the first event.
type streamObserver struct {
	w       gin.ResponseWriter
	started bool
}

func newStreamObserver(w gin.ResponseWriter) *streamObserver {
	return &streamObserver{w: w}
}

func (s *streamObserver) Observe(e dispatch.Event) {
	switch e.Kind {
	case dispatch.EventBatchStarted:
		s.line(fmt.Sprintf("batch %d/%d: recipients %d-%d", e.Batch, e.BatchCount, e.First, e.Last))
	case dispatch.EventOutcome:
		s.line(progressLine(e))
	}
}

func progressLine(e dispatch.Event) string {
	o := e.Outcome
	if o.Succeeded {
		return fmt.Sprintf("[%d/%d] ✅ %s (attempts %d)", o.Index+1, e.Total, o.Recipient, o.Attempts)
	}
	return fmt.Sprintf("[%d/%d] ❌ %s (attempts %d): %s", o.Index+1, e.Total, o.Recipient, o.Attempts, o.ErrorDetail)
}

func (s *streamObserver) start() {
	if s.started {
		return
	}
	s.started = true
	s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.w.Header().Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
}

func (s *streamObserver) line(text string) {
	s.start()
	_, _ = io.WriteString(s.w, text+"\n")
	s.w.Flush()
}
