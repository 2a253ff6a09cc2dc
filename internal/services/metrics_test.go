package services

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ConflictSkipsLatency(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAttempt("ok", 1.5)
	m.RecordConflict()
	m.RecordConflict()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationAttempts.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GenerationAttempts.WithLabelValues("conflict")))
	// only the real generator call is sampled
	var sample dto.Metric
	require.NoError(t, m.GenerationLatency.Write(&sample))
	assert.EqualValues(t, 1, sample.GetHistogram().GetSampleCount())
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordConflict()
		m.RecordAttempt("ok", 1)
		m.RecordExpired(3)
	})
}
