package config

import (
	"fmt"
	"time"

	"github.com/echoface/admediation/pkg/logger"
)

// BaseConfig 基础配置（所有服务通用）
type BaseConfig struct {
	// 服务器配置
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxConnections  int           `mapstructure:"max_connections"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// 日志配置
	Logging LoggingConfig `mapstructure:"logging"`

	// 监控配置
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Backend    string `mapstructure:"backend"` // zap | zerolog
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus  PrometheusConfig  `mapstructure:"prometheus"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
}

// PrometheusConfig Prometheus配置
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Namespace string `mapstructure:"namespace"`
}

// HealthCheckConfig 健康检查配置
type HealthCheckConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Interval         time.Duration `mapstructure:"interval"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
}

// DefaultBaseConfig 获取默认基础配置
func DefaultBaseConfig() *BaseConfig {
	return &BaseConfig{
		Host:            "localhost",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		MaxConnections:  64,
		ShutdownTimeout: 30 * time.Second,
		Logging: LoggingConfig{
			Backend:    string(logger.Zap),
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
		Monitoring: MonitoringConfig{
			Prometheus: PrometheusConfig{Enabled: true, Endpoint: "/metrics", Namespace: "admediation"},
			HealthCheck: HealthCheckConfig{
				Enabled:          true,
				Interval:         30 * time.Second,
				FailureThreshold: 5,
				SuccessThreshold: 3,
			},
		},
	}
}

// GetAddress 获取服务器地址
func (c *BaseConfig) GetAddress() string {
	host, port := c.Host, c.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// LoggerConfig 转换为 logger.Config, 环境由 RUN_TYPE 决定
func (c *BaseConfig) LoggerConfig(runType string) logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Environment = logger.ParseEnvironment(runType)
	if c.Logging.Level != "" {
		cfg.LogLevel = c.Logging.Level
	}
	cfg.LogFile = c.Logging.FilePath
	if c.Logging.MaxSize > 0 {
		cfg.MaxSize = c.Logging.MaxSize
	}
	if c.Logging.MaxBackups > 0 {
		cfg.MaxBackups = c.Logging.MaxBackups
	}
	if c.Logging.MaxAge > 0 {
		cfg.MaxAge = c.Logging.MaxAge
	}
	cfg.Compress = c.Logging.Compress
	return cfg
}

// NewLogger 按配置创建日志器, 每条日志带上 service 字段
func (c *BaseConfig) NewLogger(service, runType string) (logger.Logger, error) {
	cfg := c.LoggerConfig(runType)
	cfg.Service = service
	return logger.New(logger.LoggerType(c.Logging.Backend), cfg)
}
