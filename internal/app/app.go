// Package app assembles the dispatch pipeline from a loaded Config. Every
// entry point (server, lambda, CLI) builds its dependencies through New.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/api"
	"github.com/gsarma/mailblast/internal/config"
	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/email"
	"github.com/gsarma/mailblast/internal/notify"
	"github.com/gsarma/mailblast/internal/pipeline"
	"github.com/gsarma/mailblast/internal/store"
	"github.com/gsarma/mailblast/internal/worker"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Runner    *pipeline.Runner
	Scheduler *worker.Scheduler
	Settings  store.Store

	pool *pgxpool.Pool
}

// Deps overrides the collaborators New would otherwise build from Config.
type Deps struct {
	Provider   email.Provider
	Sink       notify.Sink
	HTTPClient *http.Client
}

// New connects the settings store (Postgres when DATABASE_URL is set,
// memory otherwise) and builds the provider, notifier and runner.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, deps Deps) (*App, error) {
	provider := deps.Provider
	if provider == nil {
		p, err := email.NewProvider(cfg.EmailProvider, cfg.ProviderConfig(deps.HTTPClient))
		if err != nil {
			return nil, &pipeline.ConfigurationError{Setting: "EMAIL_PROVIDER", Reason: err.Error()}
		}
		provider = p
	}

	sink := deps.Sink
	if sink == nil {
		sink = notify.Nop{}
		if cfg.TelegramEnabled() {
			sink = notify.NewTelegram(cfg.TelegramConfig(), deps.HTTPClient)
		} else {
			logger.Info("telegram notifications disabled")
		}
	}

	a := &App{Config: cfg, Logger: logger}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		q := store.New(pool)
		if err := q.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		a.Settings = q
	} else {
		a.Settings = store.NewMemory()
	}

	sender := dispatch.NewRetryingSender(provider, cfg.RetryPolicy(), cfg.SendTimeout, logger)
	dispatcher := dispatch.New(sender, cfg.DispatchOptions(), logger)
	a.Runner = pipeline.New(dispatcher, sink, cfg.PipelineOptions(), logger)
	a.Scheduler = worker.New(a.Runner, cfg.ScheduleInterval, logger)

	logger.Info("pipeline ready",
		zap.String("provider", cfg.EmailProvider),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Bool("postgres_settings", a.pool != nil))
	return a, nil
}

// Router returns a gin engine serving the HTTP surface.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.Logger))
	api.RegisterRoutes(r, a.Runner, a.Settings, api.Options{
		AccessToken:    a.Config.AccessToken,
		AllowedOrigins: a.Config.CORSAllowedOrigins,
	}, a.Logger)
	return r
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}
