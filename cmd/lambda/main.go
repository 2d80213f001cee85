package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/app"
	"github.com/gsarma/mailblast/internal/config"
	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/logger"
)

var (
	application *app.App
	ginLambda   *ginadapter.GinLambda
	log         *zap.Logger
)

func init() {
	log = logger.Must(os.Getenv("GIN_MODE"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	application, err = app.New(context.Background(), cfg, log, app.Deps{})
	if err != nil {
		log.Fatal("failed to build pipeline", zap.Error(err))
	}
	ginLambda = ginadapter.New(application.Router())
}

// Handler serves API Gateway proxy requests through the gin router and runs
// a scheduled dispatch for EventBridge events.
func Handler(ctx context.Context, raw json.RawMessage) (any, error) {
	var envelope struct {
		Source     string `json:"source"`
		DetailType string `json:"detail-type"`
		HTTPMethod string `json:"httpMethod"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}

	if envelope.HTTPMethod != "" {
		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		log.Debug("received API Gateway request", zap.String("path", req.Path))
		return ginLambda.ProxyWithContext(ctx, req)
	}

	if envelope.Source == "aws.events" || envelope.DetailType == "Scheduled Event" {
		var ev events.CloudWatchEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		log.Info("received scheduled event", zap.String("id", ev.ID), zap.Time("time", ev.Time))
		report, err := application.Scheduler.RunOnce(ctx)
		if err != nil {
			return nil, err
		}
		return dispatch.FormatReport(report), nil
	}

	return nil, errors.New("unsupported event")
}

func main() {
	defer func() { _ = log.Sync() }()
	lambda.Start(Handler)
}
