package handler

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/health"
	"github.com/echoface/admediation/internal/host"
)

// ReadinessSource is what the health endpoints inspect.
type ReadinessSource interface {
	Ready() bool
	Adapters() []host.AdapterStatus
	NetworkHealth() map[string]health.Status
	Units() []config.AdUnit
}

// HealthHandler handles health check requests
type HealthHandler struct {
	source       ReadinessSource
	version      string
	isHealthy    bool
	healthyMutex sync.RWMutex
	startTime    time.Time

	// Metrics
	healthCheckTotal    prometheus.Counter
	healthCheckDuration prometheus.Histogram
	lastHealthCheckTime prometheus.Gauge
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
	Checks     map[string]bool            `json:"checks,omitempty"`
}

// ComponentStatus represents the status of a component
type ComponentStatus struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(source ReadinessSource, version string, registry prometheus.Registerer) *HealthHandler {
	factory := promauto.With(registry)
	return &HealthHandler{
		source:    source,
		version:   version,
		isHealthy: true,
		startTime: time.Now(),
		healthCheckTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "health_check_requests_total",
			Help: "Total number of health check requests",
		}),
		healthCheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "health_check_duration_seconds",
			Help:    "Duration of health checks",
			Buckets: prometheus.DefBuckets,
		}),
		lastHealthCheckTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "health_check_last_time_seconds",
			Help: "Unix timestamp of the last health check",
		}),
	}
}

// HealthCheck handles the main health check endpoint
func (hh *HealthHandler) HealthCheck(c *gin.Context) {
	start := time.Now()
	defer func() {
		hh.healthCheckDuration.Observe(time.Since(start).Seconds())
		hh.lastHealthCheckTime.SetToCurrentTime()
		hh.healthCheckTotal.Inc()
	}()

	checks := map[string]bool{
		"alive":          hh.IsHealthy(),
		"memory":         hh.checkMemory(),
		"adapters_ready": hh.source.Ready(),
	}

	// adapter readiness is reported but only liveness and memory decide
	healthy := checks["alive"] && checks["memory"]
	status, httpStatus := "healthy", http.StatusOK
	if !healthy {
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Uptime:     time.Since(hh.startTime).String(),
		Version:    hh.version,
		Components: hh.getComponentStatus(),
		Checks:     checks,
	})
}

// LivenessProbe handles Kubernetes liveness probe
func (hh *HealthHandler) LivenessProbe(c *gin.Context) {
	if hh.IsHealthy() {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":    "dead",
		"timestamp": time.Now(),
	})
}

// ReadinessProbe is ready once every enabled adapter initialized.
func (hh *HealthHandler) ReadinessProbe(c *gin.Context) {
	checks := map[string]bool{
		"adapters_ready": hh.source.Ready(),
		"units_loaded":   len(hh.source.Units()) > 0,
	}
	ready := hh.IsHealthy() && checks["adapters_ready"]

	status, responseStatus := http.StatusOK, "ready"
	if !ready {
		status, responseStatus = http.StatusServiceUnavailable, "not_ready"
	}

	c.JSON(status, gin.H{
		"status":    responseStatus,
		"timestamp": time.Now(),
		"checks":    checks,
	})
}

// SetHealthyStatus sets the overall health status
func (hh *HealthHandler) SetHealthyStatus(healthy bool) {
	hh.healthyMutex.Lock()
	defer hh.healthyMutex.Unlock()
	hh.isHealthy = healthy
}

// IsHealthy returns the current health status
func (hh *HealthHandler) IsHealthy() bool {
	hh.healthyMutex.RLock()
	defer hh.healthyMutex.RUnlock()
	return hh.isHealthy
}

// getComponentStatus reports one component per adapter and per network.
func (hh *HealthHandler) getComponentStatus() map[string]ComponentStatus {
	components := make(map[string]ComponentStatus)
	now := time.Now()
	for _, a := range hh.source.Adapters() {
		if !a.Enabled {
			continue
		}
		components["adapter:"+a.Class] = ComponentStatus{
			Status:    string(a.State),
			Message:   a.Message,
			LastCheck: now,
		}
	}
	for network, st := range hh.source.NetworkHealth() {
		components["network:"+network] = ComponentStatus{
			Status:    hh.getStatusString(st.Healthy),
			Message:   st.LastError,
			LastCheck: st.LastCheck,
		}
	}
	components["memory"] = ComponentStatus{Status: hh.getStatusString(hh.checkMemory()), LastCheck: now}
	return components
}

func (hh *HealthHandler) checkMemory() bool {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// Check if we're using more than 90% of allocated memory
	return m.Alloc <= m.Sys*9/10
}

func (hh *HealthHandler) getStatusString(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
