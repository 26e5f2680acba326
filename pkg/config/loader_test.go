package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServiceConfig struct {
	BaseConfig `mapstructure:",squash"`

	Networks map[string]string `mapstructure:"networks"`
}

const testYAML = `
host: 0.0.0.0
port: 9090
read_timeout: 5s
logging:
  backend: zerolog
  level: debug
networks:
  fyber: http://localhost:7001
`

func writeConf(t *testing.T, dir, name string) string {
	t.Helper()
	confDir := filepath.Join(dir, "conf")
	require.NoError(t, os.MkdirAll(confDir, 0o755))
	path := filepath.Join(confDir, name)
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o644))
	return path
}

func TestLoaderUsesRunTypeAndConfigPath(t *testing.T) {
	dir := t.TempDir()
	want := writeConf(t, dir, "dev.yaml")
	t.Setenv("RUN_TYPE", "dev")
	t.Setenv("CONFIG_PATH", dir)

	var cfg testServiceConfig
	got, err := NewLoader("mediation").Load(&cfg)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "zerolog", cfg.Logging.Backend)
	assert.Equal(t, "http://localhost:7001", cfg.Networks["fyber"])
}

func TestLoaderEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConf(t, dir, "test.yaml")
	t.Setenv("MEDIATION_PORT", "7070")

	var cfg testServiceConfig
	loader := NewLoader("mediation")
	loader.ConfigFile = path
	_, err := loader.Load(&cfg)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
}

func TestLoaderRejectsUnknownRunType(t *testing.T) {
	t.Setenv("RUN_TYPE", "staging")
	var cfg testServiceConfig
	_, err := NewLoader("mediation").Load(&cfg)
	assert.ErrorContains(t, err, "invalid RUN_TYPE")
}

func TestLoaderMissingFile(t *testing.T) {
	t.Setenv("RUN_TYPE", "prod")
	t.Setenv("CONFIG_PATH", t.TempDir())
	var cfg testServiceConfig
	_, err := NewLoader("mediation").Load(&cfg)
	assert.ErrorContains(t, err, "config file not found")
}

func TestBaseConfigHelpers(t *testing.T) {
	cfg := DefaultBaseConfig()
	assert.Equal(t, "localhost:8080", cfg.GetAddress())

	lc := cfg.LoggerConfig("prod")
	assert.EqualValues(t, "prod", lc.Environment)
	assert.Equal(t, "info", lc.LogLevel)

	l, err := cfg.NewLogger("mediation", "dev")
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLoaderFileNameOverridesRunType(t *testing.T) {
	dir := t.TempDir()
	want := writeConf(t, dir, "tracking.yaml")
	t.Setenv("RUN_TYPE", "prod")
	t.Setenv("CONFIG_PATH", dir)

	loader := NewLoader("tracking")
	loader.FileName = "tracking.yaml"

	var cfg testServiceConfig
	got, err := loader.Load(&cfg)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 9090, cfg.Port)
}
