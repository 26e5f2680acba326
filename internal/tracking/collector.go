// Package tracking receives the impression and click beacons ad networks
// fire and hands them to a sink in batches.
package tracking

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echoface/admediation/internal/metrics"
	"github.com/echoface/admediation/pkg/concurrent"
	"github.com/echoface/admediation/pkg/jsonx"
	"github.com/echoface/admediation/pkg/logger"
)

const (
	KindImpression = "imp"
	KindClick      = "clk"
)

// Beacon 一次曝光或点击回传
type Beacon struct {
	Kind      string    `json:"kind"`
	Network   string    `json:"network"`
	AdID      string    `json:"ad_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// Sink receives flushed batches on a background goroutine.
type Sink func(batch []Beacon)

// Collector 批量收集回传
type Collector struct {
	batch         *concurrent.BatchProcessor[Beacon]
	metrics       *metrics.TrackingMetrics
	flushInterval time.Duration
	log           logger.Logger
}

func NewCollector(batchSize int, flushInterval time.Duration, sink Sink, m *metrics.TrackingMetrics,
	l logger.Logger) *Collector {
	if m == nil {
		m = metrics.NewTrackingMetrics(nil, "")
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	c := &Collector{
		metrics:       m,
		flushInterval: flushInterval,
		log:           logger.Component(l, "tracking"),
	}
	c.batch = concurrent.NewBatchProcessor(batchSize, func(batch []Beacon) {
		m.RecordBatch(len(batch))
		sink(batch)
	})
	return c
}

// Track 记录一次回传
func (c *Collector) Track(b Beacon) {
	if b.Network == "" {
		b.Network = "unknown"
	}
	if b.At.IsZero() {
		b.At = time.Now()
	}
	c.metrics.RecordBeacon(b.Kind, b.Network)
	c.batch.Add(b)
}

// Run flushes partial batches every flush interval until ctx is done, then
// flushes what is left and waits for the sink.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.batch.Flush()
		case <-ctx.Done():
			c.Close()
			return
		}
	}
}

// Close flushes pending beacons and waits for every batch to be sunk.
func (c *Collector) Close() {
	c.batch.Flush()
	c.batch.Wait()
}

// Register mounts GET /t/imp and /t/clk on r.
func (c *Collector) Register(r gin.IRouter) {
	t := r.Group("/t")
	t.GET("/"+KindImpression, c.handle(KindImpression))
	t.GET("/"+KindClick, c.handle(KindClick))
}

func (c *Collector) handle(kind string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c.Track(Beacon{
			Kind:      kind,
			Network:   ctx.Query("network"),
			AdID:      ctx.Query("ad"),
			RequestID: ctx.Query("rid"),
		})
		ctx.Status(http.StatusNoContent)
	}
}

// LogSink writes every batch to l.
func LogSink(l logger.Logger) Sink {
	l = logger.Component(l, "tracking_sink")
	return func(batch []Beacon) {
		l.Info("beacon batch", "count", len(batch), "beacons", jsonx.LzJSON(batch))
	}
}
