package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	EventsFetched prometheus.Counter
	EventsDropped prometheus.Counter
	EventsLoaded  prometheus.Counter
	LoadFailures  prometheus.Counter
	FeedFailures  prometheus.Counter

	DimensionInserts *prometheus.CounterVec // labels: dimension={network,magtype,event_type}

	AlertsSent    prometheus.Counter
	AlertFailures prometheus.Counter
	SinkFailures  prometheus.Counter

	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	// Batch processing metrics.
	BatchSize   prometheus.Histogram
	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// multiple tests can each build their own set.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_fetched_total",
			Help:      "Total features read from the USGS feed.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Features discarded because they lacked a location, magnitude or magtype.",
		}),
		EventsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_loaded_total",
			Help:      "Earthquakes written to the store.",
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Earthquakes that could not be written to the store.",
		}),
		FeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_failures_total",
			Help:      "Runs that could not fetch the feed.",
		}),
		DimensionInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dimension_inserts_total",
			Help:      "New dimension values created, by dimension.",
		}, []string{"dimension"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_sent_total",
			Help:      "Notifications published to subscribers.",
		}),
		AlertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_failures_total",
			Help:      "Notifications that failed to publish.",
		}),
		SinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Batches that failed to publish to the event stream.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that fetched the feed.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Usable earthquakes per run.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 250, 500},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load-alert run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.EventsFetched,
		m.EventsDropped,
		m.EventsLoaded,
		m.LoadFailures,
		m.FeedFailures,
		m.DimensionInserts,
		m.AlertsSent,
		m.AlertFailures,
		m.SinkFailures,
		m.PipelineRunning,
		m.LastSuccess,
		m.BatchSize,
		m.RunDuration,
	}
}
