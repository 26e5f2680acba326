package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHostMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHostMetrics(reg, "test")

	m.RecordLoad("fyber", "banner", "loaded", 20*time.Millisecond)
	m.RecordLoad("fyber", "banner", "loaded", 30*time.Millisecond)
	m.RecordEvent("du", "rewarded", "reward")
	m.SetAdapterInitialized("fyber", true)
	m.SetAdapterInitialized("du", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoadRequests.WithLabelValues("fyber", "banner", "loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdEvents.WithLabelValues("du", "rewarded", "reward")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterInitialized.WithLabelValues("fyber")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AdapterInitialized.WithLabelValues("du")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LoadLatency))
}

func TestNewHostMetricsTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewHostMetrics(prometheus.NewRegistry(), "a")
		NewHostMetrics(prometheus.NewRegistry(), "a")
		NewHostMetrics(nil, "a")
	})
}

func TestTrackingMetrics(t *testing.T) {
	m := NewTrackingMetrics(prometheus.NewRegistry(), "test")
	m.RecordBeacon("imp", "fyber")
	m.RecordBeacon("imp", "fyber")
	m.RecordBatch(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Beacons.WithLabelValues("imp", "fyber")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesFlushed))
}
