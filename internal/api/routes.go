package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/store"
)

type Options struct {
	// AccessToken, when set, must be passed as ?token= on every route but /health.
	AccessToken string
	// AllowedOrigins enables CORS for browser forms served from another origin.
	AllowedOrigins []string
}

// RegisterRoutes mounts the HTTP surface on r.
func RegisterRoutes(r *gin.Engine, runner Runner, settings store.Store, opts Options, logger *zap.Logger) *Handler {
	h := NewHandler(runner, settings, logger)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	// Health is reachable without the access token.
	r.GET("/health", h.Health)

	authed := r.Group("/", AccessToken(opts.AccessToken))
	{
		authed.GET("/", h.Usage)
		authed.POST("/", h.Send)
		authed.POST("/send", h.Send)
		authed.Any("/config", h.Config)
	}
	return h
}
