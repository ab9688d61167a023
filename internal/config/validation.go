package config

import (
	"errors"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := &c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError(globalField("ListenPort"), "必须在 1-65535")
	}

	env := strings.ToLower(strings.TrimSpace(g.AppEnv))
	switch env {
	case EnvDevelopment, EnvProduction:
		g.AppEnv = env
	case "":
		return newFieldError(globalField("AppEnv"), "不能为空")
	default:
		return newFieldError(globalField("AppEnv"), "仅支持 development/production")
	}

	if g.RecordsPath == "" {
		return newFieldError(globalField("RecordsPath"), "不能为空")
	}
	if g.KeysPath == "" {
		return newFieldError(globalField("KeysPath"), "不能为空")
	}
	if g.StaticPath == "" {
		return newFieldError(globalField("StaticPath"), "不能为空")
	}
	if samePath(g.RecordsPath, g.KeysPath) {
		return newFieldError(globalField("KeysPath"), "不能与 RecordsPath 相同")
	}
	if (g.TLSCertFile == "") != (g.TLSKeyFile == "") {
		return newFieldError(globalField("TLSCertFile/TLSKeyFile"), "必须同时提供或同时留空")
	}
	if g.BodyLimit <= 0 {
		return newFieldError(globalField("BodyLimit"), "必须大于 0")
	}
	if g.ShutdownTimeout.DurationValue() <= 0 {
		return newFieldError(globalField("ShutdownTimeout"), "必须大于 0")
	}

	return nil
}

func samePath(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
