package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	rec.IncCounter(EventPrecheckSuccess, map[string]string{"phase": "precheck"})
	rec.IncCounter(EventPrecheckSuccess, map[string]string{"phase": "precheck"})
	rec.IncCounter(EventExecuteFail, map[string]string{"phase": "execute"})

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.counters.WithLabelValues(EventPrecheckSuccess, "precheck")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.counters.WithLabelValues(EventExecuteFail, "execute")))

	expected := `
# HELP ability_events_total native-send ability event counters
# TYPE ability_events_total counter
ability_events_total{phase="execute",type="execute_fail"} 1
ability_events_total{phase="precheck",type="precheck_success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ability_events_total"))
}

func TestPrometheusRecorderLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	rec.ObserveLatency("execute", 150*time.Millisecond, map[string]string{"phase": "execute"})

	assert.Equal(t, 1, testutil.CollectAndCount(rec.histogram, "ability_latency_seconds"))
}

func TestPrometheusRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	_, err = NewPrometheusRecorder(reg)
	assert.Error(t, err)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		rec.IncCounter(EventExecuteSuccess, nil)
		rec.ObserveLatency("precheck", time.Second, nil)
	})
}
