// Package hostserver wires the mediation host into a gin HTTP service.
package hostserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/handler"
	"github.com/echoface/admediation/internal/health"
	"github.com/echoface/admediation/internal/host"
	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/metrics"
	"github.com/echoface/admediation/internal/middleware"
	"github.com/echoface/admediation/internal/sdk/sdkhttp"
	"github.com/echoface/admediation/internal/unitstore"
	"github.com/echoface/admediation/pkg/logger"
)

// ServerContext represents the global application context for the mediation host
type ServerContext struct {
	// Configuration
	Config  *config.HostConfig
	Version string

	// HTTP server
	HTTPServer *http.Server
	Router     *gin.Engine

	// Metrics
	MetricsRegistry *prometheus.Registry

	// Mediation runtime
	Host      *host.Host
	UnitStore *unitstore.Loader

	// HTTP client shared by every network SDK
	HTTPClient *http.Client

	Health *handler.HealthHandler

	// Context for graceful shutdown
	ShutdownCtx    context.Context
	ShutdownCancel context.CancelFunc

	Logger logger.Logger

	mu       sync.Mutex
	shutdown bool
}

// NewServerContext builds the host, its HTTP surface and, when enabled, the
// S3 unit store. Adapters must already be registered.
func NewServerContext(cfg *config.HostConfig, version string, l logger.Logger) (*ServerContext, error) {
	if cfg == nil {
		cfg = config.DefaultHostConfig()
	}
	if l == nil {
		l = logger.Default
	}

	// Create context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	namespace := cfg.Monitoring.Prometheus.Namespace

	httpClient := sdkhttp.NewDefaultHTTPClient()
	services := mediation.NewServices(l, httpClient, cfg.Networks)

	h, err := host.New(host.Options{
		Registry:        mediation.DefaultRegistry(),
		Services:        services,
		Logger:          l,
		Metrics:         metrics.NewHostMetrics(registry, namespace),
		Health:          health.NewChecker(cfg.Monitoring.HealthCheck.FailureThreshold, cfg.Monitoring.HealthCheck.SuccessThreshold),
		Adapters:        cfg.Adapters,
		Units:           cfg.Units,
		SessionCapacity: cfg.Sessions.Capacity,
		LoadTimeout:     cfg.Sessions.LoadTimeout,
	})
	if err != nil {
		shutdownCancel()
		return nil, fmt.Errorf("failed to create host: %w", err)
	}

	var store *unitstore.Loader
	if cfg.UnitStore.Enabled {
		if store, err = unitstore.New(cfg.UnitStore, l); err != nil {
			shutdownCancel()
			return nil, err
		}
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger.Component(l, "http")))
	if cfg.Monitoring.Prometheus.Enabled {
		router.Use(middleware.PrometheusMetrics(registry, namespace))
	}

	httpServer := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	sc := &ServerContext{
		Config:          cfg,
		Version:         version,
		HTTPServer:      httpServer,
		Router:          router,
		MetricsRegistry: registry,
		Host:            h,
		UnitStore:       store,
		HTTPClient:      httpClient,
		Health:          handler.NewHealthHandler(h, version, registry),
		ShutdownCtx:     shutdownCtx,
		ShutdownCancel:  shutdownCancel,
		Logger:          logger.Component(l, "hostserver"),
	}
	sc.setupRoutes()
	return sc, nil
}

func (sc *ServerContext) setupRoutes() {
	r := sc.Router

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "mediation host is running",
			"version": sc.Version,
			"healthy": sc.Health.IsHealthy(),
		})
	})

	// Health check endpoints
	r.GET("/health", sc.Health.HealthCheck)
	r.GET("/health/live", sc.Health.LivenessProbe)
	r.GET("/health/ready", sc.Health.ReadinessProbe)

	// Prometheus metrics endpoint
	if sc.Config.Monitoring.Prometheus.Enabled {
		endpoint := sc.Config.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.HandlerFor(sc.MetricsRegistry, promhttp.HandlerOpts{})))
	}

	handler.NewAdsHandler(sc.Host, sc.Logger).Register(r)
}

// Start initializes adapters, starts the unit store sync and serves HTTP
// until ctx is done or the server fails.
func (sc *ServerContext) Start(ctx context.Context) error {
	if err := sc.Host.InitializeAdapters(ctx); err != nil {
		// 初始化失败的适配器仍可按需懒加载
		sc.Logger.Warn("some adapters failed to initialize", "err", err)
	}

	if sc.UnitStore != nil {
		go sc.UnitStore.Sync(sc.ShutdownCtx, func(units []config.AdUnit) error {
			return sc.Host.ReplaceUnits(unitstore.Source, units)
		})
	}

	errCh := make(chan error, 1)
	go func() {
		sc.Logger.Info("mediation host listening", "addr", sc.HTTPServer.Addr)
		if err := sc.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		sc.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.Config.ShutdownTimeout)
	defer cancel()
	sc.Shutdown(shutdownCtx)
	return <-errCh
}

// Shutdown initiates graceful shutdown
func (sc *ServerContext) Shutdown(ctx context.Context) {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return
	}
	sc.shutdown = true
	sc.mu.Unlock()

	sc.Logger.Info("initiating graceful shutdown")
	sc.Health.SetHealthyStatus(false)

	if err := sc.HTTPServer.Shutdown(ctx); err != nil {
		sc.Logger.Warn("http server shutdown", "err", err)
	}
	sc.ShutdownCancel()
	sc.Host.Close()

	// Close HTTP client connections
	sc.HTTPClient.CloseIdleConnections()
	sc.Logger.Info("graceful shutdown completed")
}
