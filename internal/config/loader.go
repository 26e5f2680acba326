package config

import (
	"fmt"

	"github.com/echoface/admediation/pkg/config"
)

// ============================================================================
// 配置加载器
// ============================================================================

const (
	HostServiceName     = "mediation"
	TrackingServiceName = "tracking"
)

// LoadHostConfig 加载宿主配置. configFile 为空时按 RUN_TYPE 查找 conf/<run_type>.yaml
func LoadHostConfig(configFile string) (*HostConfig, string, error) {
	cfg := DefaultHostConfig()
	loader := config.NewLoader(HostServiceName)
	loader.ConfigFile = configFile

	used, err := loader.Load(cfg)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, used, fmt.Errorf("invalid config %s: %w", used, err)
	}
	return cfg, used, nil
}

// LoadTrackingConfig 加载回传服务配置
func LoadTrackingConfig(configFile string) (*TrackingConfig, string, error) {
	cfg := DefaultTrackingConfig()
	loader := config.NewLoader(TrackingServiceName)
	loader.ConfigFile = configFile
	loader.FileName = "tracking.yaml"

	used, err := loader.Load(cfg)
	if err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}
