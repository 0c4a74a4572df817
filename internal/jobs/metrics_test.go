package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("backup:snapshot").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("backup:snapshot").End(boom), boom)
	m.AddProcessed("backup:snapshot", 12)
	m.AddProcessed("backup:snapshot", 0)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("backup:snapshot", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("backup:snapshot", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("backup:snapshot")))
	require.Equal(t, 12.0, testutil.ToFloat64(m.processed.WithLabelValues("backup:snapshot")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("x").End(nil))
	m.AddProcessed("x", 3)
}
