package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/app"
	"github.com/gsarma/mailblast/internal/config"
	"github.com/gsarma/mailblast/internal/logger"
)

func main() {
	log := logger.Must(os.Getenv("GIN_MODE"))
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, log, app.Deps{})
	if err != nil {
		log.Fatal("failed to build pipeline", zap.Error(err))
	}
	defer a.Close()

	switch cfg.Mode {
	case "worker":
		log.Info("starting in worker-only mode")
		a.Scheduler.Start(ctx) // blocks until ctx cancelled
	case "api":
		// API-only: no scheduler; run scheduled dispatches elsewhere.
		log.Info("starting in api-only mode")
		serve(ctx, log, a, cfg.Port)
	default:
		// Default: run both API server and scheduler in the same process.
		go a.Scheduler.Start(ctx)
		serve(ctx, log, a, cfg.Port)
	}
}

func serve(ctx context.Context, log *zap.Logger, a *app.App, port string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}
