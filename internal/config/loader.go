package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 为所有配置键提供环境变量覆盖，例如 PARTICIPANT_HUB_LOGLEVEL。
const EnvPrefix = "PARTICIPANT_HUB"

// legacyEnvBindings 兼容部署脚本中沿用的环境变量名称。
var legacyEnvBindings = map[string]string{
	"ListenPort":  "PORT",
	"AppEnv":      "APP_ENV",
	"TLSCertFile": "HTTPS_CERT",
	"TLSKeyFile":  "HTTPS_CERT_KEY",
}

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}
	return load(path, false)
}

// LoadOrDefaults 与 Load 相同，但配置文件不存在时仅使用默认值与环境变量。
func LoadOrDefaults(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}
	return load(path, true)
}

func load(path string, allowMissing bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	readFile := true
	if allowMissing {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			readFile = false
		}
	}
	if readFile {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, p := range []*string{&cfg.Global.RecordsPath, &cfg.Global.KeysPath, &cfg.Global.StaticPath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("无法解析目录 %s: %w", *p, err)
		}
		*p = abs
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8888)
	v.SetDefault("AppEnv", EnvProduction)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("RecordsPath", "./participants")
	v.SetDefault("KeysPath", "./keys")
	v.SetDefault("StaticPath", "./static")
	v.SetDefault("TLSCertFile", "")
	v.SetDefault("TLSKeyFile", "")
	v.SetDefault("SyncWrites", false)
	v.SetDefault("BodyLimit", 1024*1024)
	v.SetDefault("ShutdownTimeout", "10s")
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, env := range legacyEnvBindings {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), env); err != nil {
			return fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}
	return nil
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8888
	}
	if g.BodyLimit == 0 {
		g.BodyLimit = 1024 * 1024
	}
	if g.ShutdownTimeout.DurationValue() == 0 {
		g.ShutdownTimeout = Duration(10 * time.Second)
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
