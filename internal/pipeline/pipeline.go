package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-alert-etl/internal/domain"
	"github.com/couchcryptid/quake-alert-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// FeedFetcher reads the current batch of raw events from the feed.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]domain.RawEvent, error)
}

// Store persists earthquakes and serves the subscription tables.
type Store interface {
	domain.DimensionInserter
	domain.SubscriberDirectory
	LoadDimensions(ctx context.Context) (*domain.Dimensions, error)
	InsertEarthquake(ctx context.Context, event domain.NormalizedEvent, ids domain.DimensionIDs) error
	Topics(ctx context.Context) ([]domain.Topic, error)
}

// Notifier publishes a message to a notification channel address.
type Notifier interface {
	Publish(ctx context.Context, address, subject, message string) error
}

// EventSink receives every usable event of a run.
type EventSink interface {
	LoadBatch(ctx context.Context, events []domain.NormalizedEvent) error
}

// Summary counts what happened in one run.
type Summary struct {
	Fetched      int
	Usable       int
	Loaded       int
	LoadFailed   int
	Alerted      int
	AlertsFailed int
}

// Pipeline runs the fetch, normalize, load and alert cycle.
type Pipeline struct {
	feed     FeedFetcher
	store    Store
	notifier Notifier
	sink     EventSink
	logger   *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration
	clock    clockwork.Clock
	subject  string
	ready    atomic.Bool
}

// New creates a Pipeline. notifier and sink may be nil to disable alerting or
// the event stream.
func New(feed FeedFetcher, store Store, notifier Notifier, sink EventSink, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	return &Pipeline{
		feed:     feed,
		store:    store,
		notifier: notifier,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		subject:  domain.DefaultAlertSubject,
	}
}

// WithClock replaces the clock driving the schedule and run timings.
func (p *Pipeline) WithClock(c clockwork.Clock) *Pipeline {
	p.clock = c
	return p
}

// WithAlertSubject sets the subject of every notification.
func (p *Pipeline) WithAlertSubject(subject string) *Pipeline {
	if subject != "" {
		p.subject = subject
	}
	return p
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes a batch immediately and then once per interval until the
// context is cancelled. A failed run is logged and the schedule continues.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("pipeline run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce performs one batch. Only a feed failure or cancellation is returned
// as an error; store and notification failures are logged per event and
// reflected in the summary.
func (p *Pipeline) RunOnce(ctx context.Context) (Summary, error) {
	start := p.clock.Now()
	var sum Summary

	raws, err := p.feed.Fetch(ctx)
	if err != nil {
		p.metrics.FeedFailures.Inc()
		return sum, fmt.Errorf("fetch feed: %w", err)
	}
	sum.Fetched = len(raws)
	p.metrics.EventsFetched.Add(float64(len(raws)))

	events := domain.NormalizeBatch(p.logger, raws)
	sum.Usable = len(events)
	p.metrics.EventsDropped.Add(float64(len(raws) - len(events)))
	p.metrics.BatchSize.Observe(float64(len(events)))

	if len(events) > 0 {
		sum.Loaded, sum.LoadFailed = p.load(ctx, events)
		p.publishStream(ctx, events)
		sum.Alerted, sum.AlertsFailed = p.alert(ctx, events)
	}

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.ready.Store(true)

	p.logger.Info("pipeline run completed",
		"fetched", sum.Fetched,
		"usable", sum.Usable,
		"loaded", sum.Loaded,
		"load_failed", sum.LoadFailed,
		"alerted", sum.Alerted,
		"alerts_failed", sum.AlertsFailed,
	)
	return sum, nil
}

// load writes each event with its resolved dimension ids. Failures are
// counted and do not stop the batch.
func (p *Pipeline) load(ctx context.Context, events []domain.NormalizedEvent) (loaded, failed int) {
	dims, err := p.store.LoadDimensions(ctx)
	if err != nil {
		p.logger.Error("load dimensions failed, skipping inserts", "error", err, "batch_size", len(events))
		p.metrics.LoadFailures.Add(float64(len(events)))
		return 0, len(events)
	}

	inserter := countingInserter{next: p.store, metrics: p.metrics}
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}
		logger := p.logger.With("earthquake_id", event.ID())

		ids, err := dims.Resolve(ctx, logger, event, inserter)
		if err != nil {
			logger.Error("resolve dimensions failed", "error", err)
			p.metrics.LoadFailures.Inc()
			failed++
			continue
		}
		if err := p.store.InsertEarthquake(ctx, event, ids); err != nil {
			logger.Error("insert earthquake failed", "error", err)
			p.metrics.LoadFailures.Inc()
			failed++
			continue
		}
		p.metrics.EventsLoaded.Inc()
		loaded++
	}
	return loaded, failed
}

func (p *Pipeline) publishStream(ctx context.Context, events []domain.NormalizedEvent) {
	if p.sink == nil {
		return
	}
	if err := p.sink.LoadBatch(ctx, events); err != nil {
		p.logger.Error("publish event stream failed", "error", err, "batch_size", len(events))
		p.metrics.SinkFailures.Inc()
	}
}

// alert publishes once per matched topic address.
func (p *Pipeline) alert(ctx context.Context, events []domain.NormalizedEvent) (sent, failed int) {
	if p.notifier == nil {
		return 0, 0
	}

	topics, err := p.store.Topics(ctx)
	if err != nil {
		p.logger.Error("get topics failed, skipping alerts", "error", err)
		return 0, 0
	}

	for _, a := range domain.MatchAlerts(ctx, p.logger, events, topics, p.store) {
		if ctx.Err() != nil {
			break
		}
		err := p.notifier.Publish(ctx, a.Subscriber.TopicARN, p.subject, domain.FormatAlertMessage(a))
		if err != nil {
			p.logger.Error("publish alert failed", "error", err,
				"topic_arn", a.Subscriber.TopicARN, "users", len(a.Users), "earthquake_id", a.Event.ID())
			p.metrics.AlertFailures.Inc()
			failed++
			continue
		}
		p.metrics.AlertsSent.Inc()
		sent++
	}
	return sent, failed
}

// countingInserter records every new dimension value.
type countingInserter struct {
	next    domain.DimensionInserter
	metrics *observability.Metrics
}

func (c countingInserter) InsertDimension(ctx context.Context, family domain.Dimension, value string) (int64, error) {
	id, err := c.next.InsertDimension(ctx, family, value)
	if err != nil {
		return 0, err
	}
	c.metrics.DimensionInserts.WithLabelValues(string(family)).Inc()
	return id, nil
}
