package mediation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/admediation/pkg/logger"
)

type stubAdapter struct {
	Adapter
	services *Services
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func(s *Services) Adapter { return &stubAdapter{services: s} }

	require.NoError(t, r.Register("com.example.B", factory))
	require.NoError(t, r.Register("com.example.A", factory))
	assert.Error(t, r.Register("com.example.A", factory))
	assert.Error(t, r.Register("", factory))
	assert.Error(t, r.Register("com.example.C", nil))

	assert.Equal(t, []string{"com.example.A", "com.example.B"}, r.Names())
	assert.Equal(t, 2, r.Count())
	assert.True(t, r.Has("com.example.A"))

	s := NewServices(logger.NewNop(), nil, nil)
	a, err := r.New("com.example.A", s)
	require.NoError(t, err)
	assert.Same(t, s, a.(*stubAdapter).services)

	_, err = r.New("com.example.Missing", s)
	assert.Error(t, err)

	require.NoError(t, r.Unregister("com.example.A"))
	assert.Error(t, r.Unregister("com.example.A"))
	assert.False(t, r.Has("com.example.A"))
}

func TestServicesSingleton(t *testing.T) {
	s := NewServices(nil, nil, map[string]NetworkConfig{"fyber": {Endpoint: "http://fyber.test"}})
	assert.Same(t, http.DefaultClient, s.HTTPClient)
	assert.Equal(t, "http://fyber.test", s.Network("fyber").Endpoint)
	assert.Empty(t, s.Network("duad").Endpoint)

	builds := 0
	build := func() *int { builds++; v := builds; return &v }
	first := Singleton(s, "sdk", build)
	second := Singleton(s, "sdk", build)
	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
}

func TestDefaultRegistryIsShared(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}
