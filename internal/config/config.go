package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/pkg/config"
)

// ============================================================================
// Mediation host 专用配置
// ============================================================================

// HostConfig 中介宿主服务配置
type HostConfig struct {
	config.BaseConfig `mapstructure:",squash"`

	Networks  map[string]mediation.NetworkConfig `mapstructure:"networks"`
	Adapters  []AdapterConfig                    `mapstructure:"adapters"`
	Units     []AdUnit                           `mapstructure:"units"`
	Sessions  SessionConfig                      `mapstructure:"sessions"`
	UnitStore UnitStoreConfig                    `mapstructure:"unit_store"`
}

// AdapterConfig 适配器开关
type AdapterConfig struct {
	Class       string        `mapstructure:"class" json:"class"`
	Enabled     bool          `mapstructure:"enabled" json:"enabled"`
	InitTimeout time.Duration `mapstructure:"init_timeout" json:"init_timeout"`
}

// AdUnit maps one host ad unit onto an adapter and its server parameters.
//
// viper lowercases map keys, so YAML carries parameters as "key=value"
// strings in Params. JSON unit files use ServerParameters directly.
type AdUnit struct {
	ID               string            `mapstructure:"id" json:"id"`
	Adapter          string            `mapstructure:"adapter" json:"adapter"`
	Format           string            `mapstructure:"format" json:"format"`
	Params           []string          `mapstructure:"params" json:"params,omitempty"`
	ServerParameters map[string]string `mapstructure:"-" json:"server_parameters,omitempty"`
	Width            int               `mapstructure:"width" json:"width,omitempty"`
	Height           int               `mapstructure:"height" json:"height,omitempty"`
	TestMode         bool              `mapstructure:"test_mode" json:"test_mode,omitempty"`
	Keywords         []string          `mapstructure:"keywords" json:"keywords,omitempty"`
}

// Parameters merges Params over ServerParameters.
func (u AdUnit) Parameters() (mediation.ServerParameters, error) {
	params := make(mediation.ServerParameters, len(u.ServerParameters)+len(u.Params))
	for k, v := range u.ServerParameters {
		params[k] = v
	}
	for _, kv := range u.Params {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("unit %s: malformed parameter %q, want key=value", u.ID, kv)
		}
		params[k] = strings.TrimSpace(v)
	}
	return params, nil
}

// AdFormat parses Format.
func (u AdUnit) AdFormat() (mediation.AdFormat, error) {
	f, ok := mediation.ParseAdFormat(u.Format)
	if !ok {
		return "", fmt.Errorf("unit %s: unknown format %q", u.ID, u.Format)
	}
	return f, nil
}

// Size 未配置时使用标准横幅尺寸
func (u AdUnit) Size() mediation.AdSize {
	if u.Width <= 0 || u.Height <= 0 {
		return mediation.AdSizeBanner
	}
	return mediation.AdSize{Width: u.Width, Height: u.Height}
}

// Validate checks the fields every unit needs.
func (u AdUnit) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("unit id is required")
	}
	if u.Adapter == "" {
		return fmt.Errorf("unit %s: adapter is required", u.ID)
	}
	if _, err := u.AdFormat(); err != nil {
		return err
	}
	_, err := u.Parameters()
	return err
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	Capacity    int           `mapstructure:"capacity"`
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
}

// UnitStoreConfig S3存储的广告位配置
type UnitStoreConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	Prefix          string        `mapstructure:"prefix"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
}

// DefaultHostConfig 默认配置
func DefaultHostConfig() *HostConfig {
	return &HostConfig{
		BaseConfig: *config.DefaultBaseConfig(),
		Networks:   map[string]mediation.NetworkConfig{},
		Sessions: SessionConfig{
			Capacity:    1000,
			LoadTimeout: 10 * time.Second,
		},
		UnitStore: UnitStoreConfig{
			Prefix:       "units/",
			ScanInterval: 30 * time.Second,
		},
	}
}

// Validate 校验配置
func (c *HostConfig) Validate() error {
	seen := make(map[string]bool, len(c.Units))
	for _, u := range c.Units {
		if err := u.Validate(); err != nil {
			return err
		}
		if seen[u.ID] {
			return fmt.Errorf("duplicate unit id %s", u.ID)
		}
		seen[u.ID] = true
	}
	for _, a := range c.Adapters {
		if a.Class == "" {
			return fmt.Errorf("adapter class is required")
		}
	}
	if c.UnitStore.Enabled && (c.UnitStore.Endpoint == "" || c.UnitStore.BucketName == "") {
		return fmt.Errorf("unit_store: endpoint and bucket_name are required when enabled")
	}
	return nil
}

// EnabledAdapters returns the classes of enabled adapters in config order.
func (c *HostConfig) EnabledAdapters() []string {
	classes := make([]string, 0, len(c.Adapters))
	for _, a := range c.Adapters {
		if a.Enabled {
			classes = append(classes, a.Class)
		}
	}
	return classes
}

// ============================================================================
// Tracking server 配置
// ============================================================================

// TrackingConfig 曝光点击回传服务配置
type TrackingConfig struct {
	config.BaseConfig `mapstructure:",squash"`

	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// DefaultTrackingConfig 默认配置
func DefaultTrackingConfig() *TrackingConfig {
	base := config.DefaultBaseConfig()
	base.Port = 8081
	return &TrackingConfig{
		BaseConfig:    *base,
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
	}
}
