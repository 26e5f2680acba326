package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/admediation/internal/metrics"
	"github.com/echoface/admediation/pkg/logger"
)

type captureSink struct {
	mu      sync.Mutex
	beacons []Beacon
	batches int
}

func (s *captureSink) sink(batch []Beacon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	s.beacons = append(s.beacons, batch...)
}

func (s *captureSink) snapshot() ([]Beacon, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Beacon(nil), s.beacons...), s.batches
}

func TestCollectorFlushesFullBatches(t *testing.T) {
	capture := &captureSink{}
	m := metrics.NewTrackingMetrics(prometheus.NewRegistry(), "test")
	c := NewCollector(2, time.Hour, capture.sink, m, logger.NewNop())

	c.Track(Beacon{Kind: KindImpression, Network: "fyber", AdID: "a1"})
	c.Track(Beacon{Kind: KindClick, Network: "fyber", AdID: "a1"})
	c.Track(Beacon{Kind: KindImpression})
	c.Close()

	beacons, batches := capture.snapshot()
	require.Len(t, beacons, 3)
	assert.Equal(t, 2, batches)
	for _, b := range beacons {
		assert.False(t, b.At.IsZero())
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BatchesFlushed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Beacons.WithLabelValues(KindImpression, "unknown")))
}

func TestCollectorRunFlushesOnInterval(t *testing.T) {
	capture := &captureSink{}
	c := NewCollector(100, 10*time.Millisecond, capture.sink, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Track(Beacon{Kind: KindImpression, Network: "du"})
	assert.Eventually(t, func() bool {
		beacons, _ := capture.snapshot()
		return len(beacons) == 1
	}, time.Second, 5*time.Millisecond)

	c.Track(Beacon{Kind: KindClick, Network: "du"})
	cancel()
	<-done

	beacons, _ := capture.snapshot()
	assert.Len(t, beacons, 2)
}

func TestCollectorHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	capture := &captureSink{}
	c := NewCollector(10, time.Hour, capture.sink, nil, logger.NewNop())

	r := gin.New()
	c.Register(r)

	for _, path := range []string{"/t/imp?network=fyber&ad=ad-1&rid=r-1", "/t/clk?network=fyber&ad=ad-1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
	c.Close()

	beacons, _ := capture.snapshot()
	require.Len(t, beacons, 2)
	assert.Equal(t, KindImpression, beacons[0].Kind)
	assert.Equal(t, "r-1", beacons[0].RequestID)
	assert.Equal(t, KindClick, beacons[1].Kind)
	assert.Equal(t, "ad-1", beacons[1].AdID)
}

func TestLogSink(t *testing.T) {
	LogSink(logger.NewNop())([]Beacon{{Kind: KindImpression, Network: "du"}})
}
