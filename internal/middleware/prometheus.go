package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/echoface/admediation/pkg/logger"
)

// PrometheusMetrics 记录 HTTP 请求指标, 注册到 reg
func PrometheusMetrics(reg prometheus.Registerer, namespace string) gin.HandlerFunc {
	factory := promauto.With(reg)
	requestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestCount := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestInFlight := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests currently in flight",
	})

	return func(c *gin.Context) {
		start := time.Now()
		requestInFlight.Inc()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		// 用路由模板, 避免 handle 撑爆 label
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		duration := time.Since(start).Seconds()
		requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		requestCount.WithLabelValues(c.Request.Method, path, status).Inc()
		requestInFlight.Dec()
	}
}

// RequestLogger 记录每个请求的访问日志
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
