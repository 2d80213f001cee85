package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/pipeline"
	"github.com/gsarma/mailblast/internal/store"
)

// Runner runs one dispatch from submitted input.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input, observers ...dispatch.Observer) (dispatch.Report, error)
}

type Handler struct {
	runner   Runner
	settings store.Store
	logger   *zap.Logger
}

func NewHandler(runner Runner, settings store.Store, logger *zap.Logger) *Handler {
	if settings == nil {
		settings = store.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, settings: settings, logger: logger}
}

const usage = `mailblast

POST /send        send one message to a recipient list
                  fields: fromEmail, toEmails (one per line), subject, body, html
                  add ?stream=true to receive progress lines while sending
GET  /config      last saved form values (JSON)
POST /config      save form values (JSON object)
GET  /health      liveness check
`

// Usage describes the available endpoints.
func (h *Handler) Usage(c *gin.Context) {
	c.String(http.StatusOK, usage)
}

// Health reports that the process is serving requests.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Send runs a dispatch from form or JSON input and replies with the plain
// text report. The status is 200 whenever the dispatch ran, including when
// every recipient failed.
func (h *Handler) Send(c *gin.Context) {
	var in pipeline.Input
	if err := c.ShouldBind(&in); err != nil {
		c.String(http.StatusBadRequest, "invalid request: %s", err.Error())
		return
	}

	if c.Query("stream") == "true" {
		h.sendStreaming(c, in)
		return
	}

	report, err := h.runner.Run(c.Request.Context(), in)
	if err != nil && (pipeline.IsRejected(err) || report.Total == 0) {
		h.logger.Warn("send rejected", zap.Error(err))
		c.String(http.StatusInternalServerError, "%s", dispatch.FormatError(err))
		return
	}
	if err != nil {
		h.logger.Warn("send interrupted", zap.String("run_id", report.RunID.String()), zap.Error(err))
	}
	c.String(http.StatusOK, "%s", dispatch.FormatReport(report))
}

func (h *Handler) sendStreaming(c *gin.Context, in pipeline.Input) {
	s := newStreamObserver(c.Writer)
	report, err := h.runner.Run(c.Request.Context(), in, s)
	if err != nil && (pipeline.IsRejected(err) || report.Total == 0) {
		if !s.started {
			c.String(http.StatusInternalServerError, "%s", dispatch.FormatError(err))
			return
		}
		s.line(dispatch.FormatError(err))
		return
	}
	s.start()
	s.line("")
	s.line(dispatch.FormatReport(report))
}

// Config serves and stores the last-used form values.
func (h *Handler) Config(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.getConfig(c)
	case http.MethodPost:
		h.saveConfig(c)
	default:
		c.Header("Allow", "GET, POST")
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (h *Handler) getConfig(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	raw, err := h.settings.Get(c.Request.Context(), store.SettingsKey)
	if errors.Is(err, store.ErrNotFound) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte("{}"))
		return
	}
	if err != nil {
		h.logger.Error("load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *Handler) saveConfig(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "config must be a JSON object"})
		return
	}
	if err := h.settings.Put(c.Request.Context(), store.SettingsKey, raw); err != nil {
		h.logger.Error("save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config"})
		return
	}
	c.String(http.StatusOK, "saved")
}
