// Package main runs one pipeline batch per Lambda invocation.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/couchcryptid/quake-alert-etl/internal/app"
	"github.com/couchcryptid/quake-alert-etl/internal/config"
	"github.com/couchcryptid/quake-alert-etl/internal/observability"
	"github.com/couchcryptid/quake-alert-etl/internal/pipeline"
)

const (
	statusSucceeded = "Pipeline ran successfully"
	statusStopped   = "Pipeline running stopped"
)

// Response is the invocation result.
type Response struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type runner interface {
	RunOnce(ctx context.Context) (pipeline.Summary, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// The pool survives between warm invocations.
	a, err := app.Build(context.Background(), cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	lambda.Start(handler(a.Pipeline, logger))
}

// handler reports a failed batch in the response, never as an invocation error.
func handler(r runner, logger *slog.Logger) func(ctx context.Context) (Response, error) {
	return func(ctx context.Context) (Response, error) {
		if _, err := r.RunOnce(ctx); err != nil {
			logger.Error("pipeline run failed", "error", err)
			return Response{Status: statusStopped, Reason: err.Error()}, nil
		}
		return Response{Status: statusSucceeded}, nil
	}
}
