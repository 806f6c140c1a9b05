package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/quake-alert-etl/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		hidden  slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"warning", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			restoreDefaultLogger(t)
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.enabled))
			assert.False(t, logger.Enabled(ctx, tt.hidden))
		})
	}
}

func TestNewLogger_InstallsDefault(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			restoreDefaultLogger(t)
			logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: format})

			require.NotNil(t, logger)
			assert.Same(t, logger, slog.Default())
		})
	}
}

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.EventsLoaded.Add(3)
	a.DimensionInserts.WithLabelValues("network").Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(a.EventsLoaded), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.EventsLoaded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(a.DimensionInserts.WithLabelValues("network")), 0)
}

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsForTesting()

	require.NoError(t, registerAll(reg, m))
	m.AlertsSent.Inc()

	count, err := testutil.GatherAndCount(reg, "quake_etl_alerts_sent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func registerAll(reg prometheus.Registerer, m *Metrics) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
