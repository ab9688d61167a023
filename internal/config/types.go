package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 运行环境取值，development 下静态资源每次重新读取，production 下常驻内存。
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级运行参数：监听、日志、数据目录与持久化策略。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	AppEnv          string   `mapstructure:"AppEnv"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	RecordsPath     string   `mapstructure:"RecordsPath"`
	KeysPath        string   `mapstructure:"KeysPath"`
	StaticPath      string   `mapstructure:"StaticPath"`
	TLSCertFile     string   `mapstructure:"TLSCertFile"`
	TLSKeyFile      string   `mapstructure:"TLSKeyFile"`
	SyncWrites      bool     `mapstructure:"SyncWrites"`
	BodyLimit       int      `mapstructure:"BodyLimit"`
	ShutdownTimeout Duration `mapstructure:"ShutdownTimeout"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
}

// IsDevelopment 表示是否处于开发模式。
func (g GlobalConfig) IsDevelopment() bool {
	return g.AppEnv == EnvDevelopment
}

// TLSEnabled 仅在证书与私钥同时配置时返回 true。
func (g GlobalConfig) TLSEnabled() bool {
	return g.TLSCertFile != "" && g.TLSKeyFile != ""
}

// PersistMode 输出 `sync` 或 `async`，供日志字段使用。
func (g GlobalConfig) PersistMode() string {
	if g.SyncWrites {
		return "sync"
	}
	return "async"
}
