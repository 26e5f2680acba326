package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HostMetrics 中介宿主指标
type HostMetrics struct {
	// 加载相关指标
	LoadRequests *prometheus.CounterVec
	LoadLatency  *prometheus.HistogramVec

	// 广告事件 (opened, clicked, reward ...)
	AdEvents *prometheus.CounterVec

	// 适配器初始化状态, 1 表示成功
	AdapterInitialized *prometheus.GaugeVec

	// 会话相关指标
	ActiveSessions   prometheus.Gauge
	SessionEvictions prometheus.Counter

	// 广告位数量, 按来源
	Units *prometheus.GaugeVec
}

// NewHostMetrics 创建宿主指标实例. reg 为 nil 时不注册
func NewHostMetrics(reg prometheus.Registerer, namespace string) *HostMetrics {
	factory := promauto.With(reg)
	const subsystem = "host"
	return &HostMetrics{
		LoadRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "load_requests_total",
			Help:      "Ad load requests by adapter, format and result",
		}, []string{"adapter", "format", "result"}),
		LoadLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "load_latency_seconds",
			Help:      "Time until the terminal load callback",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"adapter", "format"}),
		AdEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ad_events_total",
			Help:      "Ad events forwarded by adapters",
		}, []string{"adapter", "format", "event"}),
		AdapterInitialized: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "adapter_initialized",
			Help:      "Whether the adapter's network SDK initialized",
		}, []string{"adapter"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_sessions",
			Help:      "Sessions held by the session store",
		}),
		SessionEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_evictions_total",
			Help:      "Sessions evicted from the session store",
		}),
		Units: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "units",
			Help:      "Configured ad units by source",
		}, []string{"source"}),
	}
}

// RecordLoad 记录加载结果
func (m *HostMetrics) RecordLoad(adapter, format, result string, latency time.Duration) {
	m.LoadRequests.WithLabelValues(adapter, format, result).Inc()
	m.LoadLatency.WithLabelValues(adapter, format).Observe(latency.Seconds())
}

// RecordEvent 记录广告事件
func (m *HostMetrics) RecordEvent(adapter, format, event string) {
	m.AdEvents.WithLabelValues(adapter, format, event).Inc()
}

// SetAdapterInitialized 更新适配器初始化状态
func (m *HostMetrics) SetAdapterInitialized(adapter string, ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	m.AdapterInitialized.WithLabelValues(adapter).Set(v)
}
