package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/metrics"
	"github.com/echoface/admediation/internal/middleware"
	"github.com/echoface/admediation/internal/tracking"
	pkgconfig "github.com/echoface/admediation/pkg/config"
)

func main() {
	// Load configuration based on RUN_TYPE
	cfg, path, err := config.LoadTrackingConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := cfg.NewLogger(config.TrackingServiceName, pkgconfig.GetRunType())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	l.Info("config loaded", "file", path)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	namespace := cfg.Monitoring.Prometheus.Namespace

	collector := tracking.NewCollector(cfg.BatchSize, cfg.FlushInterval, tracking.LogSink(l),
		metrics.NewTrackingMetrics(registry, namespace), l)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.PrometheusMetrics(registry, namespace))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Tracking Server is running!")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	collector.Register(r)

	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		collector.Run(ctx)
		close(done)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn("http server shutdown", "err", err)
		}
	}()

	l.Info("tracking server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("tracking server failed", "err", err)
		stop()
	}
	<-done
}
