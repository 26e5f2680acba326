package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TrackingMetrics 回传服务指标
type TrackingMetrics struct {
	Beacons        *prometheus.CounterVec
	BatchesFlushed prometheus.Counter
	BatchSize      prometheus.Histogram
}

// NewTrackingMetrics 创建回传指标实例
func NewTrackingMetrics(reg prometheus.Registerer, namespace string) *TrackingMetrics {
	factory := promauto.With(reg)
	const subsystem = "tracking"
	return &TrackingMetrics{
		Beacons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "beacons_total",
			Help:      "Tracking beacons received by kind and network",
		}, []string{"kind", "network"}),
		BatchesFlushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batches_flushed_total",
			Help:      "Beacon batches handed to the sink",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batch_size",
			Help:      "Beacons per flushed batch",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}
}

// RecordBeacon 记录一次回传
func (m *TrackingMetrics) RecordBeacon(kind, network string) {
	m.Beacons.WithLabelValues(kind, network).Inc()
}

// RecordBatch 记录一次批量落盘
func (m *TrackingMetrics) RecordBatch(n int) {
	m.BatchesFlushed.Inc()
	m.BatchSize.Observe(float64(n))
}
