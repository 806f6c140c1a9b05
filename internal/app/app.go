// Package app wires the configured adapters into a pipeline. It is shared by
// the long-running service and the Lambda entry point.
package app

import (
	"context"
	"fmt"
	"log/slog"

	kafkaadapter "github.com/couchcryptid/quake-alert-etl/internal/adapter/kafka"
	"github.com/couchcryptid/quake-alert-etl/internal/adapter/postgres"
	snsadapter "github.com/couchcryptid/quake-alert-etl/internal/adapter/sns"
	"github.com/couchcryptid/quake-alert-etl/internal/adapter/usgs"
	"github.com/couchcryptid/quake-alert-etl/internal/config"
	"github.com/couchcryptid/quake-alert-etl/internal/observability"
	"github.com/couchcryptid/quake-alert-etl/internal/pipeline"
)

// App owns the pipeline and the connections it depends on.
type App struct {
	Pipeline *pipeline.Pipeline
	Store    *postgres.Store

	writer *kafkaadapter.Writer
	logger *slog.Logger
}

// Build connects to the database and the optional alert and stream
// transports, then assembles the pipeline.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	store, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.DBMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("database schema applied")
	}

	a := &App{Store: store, logger: logger}

	var notifier pipeline.Notifier
	if cfg.AlertsEnabled {
		client, err := snsadapter.NewClient(ctx, cfg.AWSRegion, cfg.AWSEndpointURL)
		if err != nil {
			store.Close()
			return nil, err
		}
		notifier = snsadapter.NewPublisher(client, logger)
		logger.Info("sns alerts enabled", "region", cfg.AWSRegion)
	} else {
		logger.Info("sns alerts disabled")
	}

	var sink pipeline.EventSink
	if cfg.KafkaEnabled {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		sink = a.writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	feed := usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger)
	a.Pipeline = pipeline.New(feed, store, notifier, sink, logger, metrics, cfg.RunInterval).
		WithAlertSubject(cfg.AlertSubject)
	return a, nil
}

// Close releases the stream writer and the database pool.
func (a *App) Close() {
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
	a.Store.Close()
}
