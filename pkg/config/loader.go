package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader 通用配置加载器
type Loader struct {
	ServiceName string

	// ConfigFile 显式指定配置文件时跳过 RUN_TYPE 目录查找
	ConfigFile string

	// FileName 替代 <run_type>.yaml, 仍在配置目录下查找
	FileName string
}

// NewLoader 创建配置加载器
func NewLoader(serviceName string) *Loader {
	return &Loader{
		ServiceName: serviceName,
	}
}

// Load 加载配置文件并解析到目标结构体, 返回实际使用的配置文件路径
func (l *Loader) Load(configStruct interface{}) (string, error) {
	// .env 是可选的
	_ = godotenv.Load()

	configFile := l.ConfigFile
	if configFile == "" && l.FileName != "" {
		configFile = filepath.Join(l.getConfigDir(), l.FileName)
	}
	if configFile == "" {
		runType := GetRunType()
		if !validRunType(runType) {
			return "", fmt.Errorf("invalid RUN_TYPE: %s, must be 'test', 'prod', or 'dev'", runType)
		}
		configFile = filepath.Join(l.getConfigDir(), fmt.Sprintf("%s.yaml", runType))
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return "", fmt.Errorf("config file not found: %s", configFile)
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	// 环境变量覆盖: <SERVICE>_PORT, <SERVICE>_LOGGING_LEVEL ...
	v.SetEnvPrefix(strings.ReplaceAll(l.ServiceName, "-", "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := v.Unmarshal(configStruct); err != nil {
		return "", fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return configFile, nil
}

// getConfigDir 获取配置文件目录
func (l *Loader) getConfigDir() string {
	// 优先级：
	// 1. CONFIG_PATH环境变量
	// 2. 相对于可执行文件的conf目录
	// 3. 相对于当前工作目录的conf目录

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return filepath.Join(configPath, "conf")
	}

	if exePath, err := os.Executable(); err == nil {
		confPath := filepath.Join(filepath.Dir(exePath), "conf")
		if _, err := os.Stat(confPath); err == nil {
			return confPath
		}
	}

	return "conf"
}

func validRunType(runType string) bool {
	return runType == "test" || runType == "prod" || runType == "dev"
}

// GetRunType 获取当前运行类型
func GetRunType() string {
	runType := os.Getenv("RUN_TYPE")
	if runType == "" {
		return "test"
	}
	return runType
}

// IsProduction 判断是否为生产环境
func IsProduction() bool {
	return GetRunType() == "prod"
}

// IsTest 判断是否为测试环境
func IsTest() bool {
	return GetRunType() == "test"
}
