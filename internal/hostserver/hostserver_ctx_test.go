package hostserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/admediation/internal/adapters/duad"
	"github.com/echoface/admediation/internal/adapters/fyber"
	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/sdk/dusdk/dutest"
	"github.com/echoface/admediation/internal/sdk/fybersdk/fybertest"
	"github.com/echoface/admediation/pkg/logger"
)

func testConfig(t *testing.T) *config.HostConfig {
	t.Helper()
	fy := fybertest.NewServer(t)
	du := dutest.NewServer(t)

	cfg := config.DefaultHostConfig()
	cfg.Networks = map[string]mediation.NetworkConfig{
		fyber.NetworkName: {Endpoint: fy.URL, Timeout: time.Second},
		duad.NetworkName:  {Endpoint: du.URL, Timeout: time.Second},
	}
	cfg.Adapters = []config.AdapterConfig{
		{Class: fyber.ClassName, Enabled: true},
		{Class: duad.RewardedClassName, Enabled: true},
	}
	cfg.Units = []config.AdUnit{
		{ID: "banner", Adapter: fyber.ClassName, Format: "banner", Params: []string{"applicationId=app", "spotId=1"}},
		{ID: "legacy-du", Adapter: duad.RewardedClassName, Format: "rewarded",
			Params: []string{"appId=du", "placementId=3"}},
	}
	return cfg
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestServerContextRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sc, err := NewServerContext(testConfig(t), "v-test", logger.NewNop())
	require.NoError(t, err)
	defer sc.Shutdown(context.Background())

	w := get(sc.Router, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "v-test")

	require.NoError(t, sc.Host.InitializeAdapters(context.Background()))
	assert.Equal(t, http.StatusOK, get(sc.Router, http.MethodGet, "/health/ready").Code)

	w = get(sc.Router, http.MethodPost, "/v1/units/legacy-du/load")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(sc.Router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `admediation_host_load_requests_total{adapter="DuRewardedAdAdapter",format="rewarded",result="loaded"} 1`)
	assert.Contains(t, body, `admediation_host_adapter_initialized{adapter="FyberMediationAdapter"} 1`)
	assert.Contains(t, body, "admediation_http_requests_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestServerContextUnitStoreRequiresValidEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.UnitStore = config.UnitStoreConfig{Enabled: true, Endpoint: "http://bad endpoint", BucketName: "b"}
	_, err := NewServerContext(cfg, "v", logger.NewNop())
	assert.Error(t, err)
}

func TestShutdownIsIdempotent(t *testing.T) {
	sc, err := NewServerContext(testConfig(t), "v", logger.NewNop())
	require.NoError(t, err)

	sc.Shutdown(context.Background())
	sc.Shutdown(context.Background())
	assert.False(t, sc.Health.IsHealthy())
	assert.Error(t, sc.ShutdownCtx.Err())
}
