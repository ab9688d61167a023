package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempConfig(t, `
LogLevel = "debug"
RecordsPath = "./data/participants"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 8888 {
		t.Fatalf("ListenPort 应该自动填充默认值，得到 %d", cfg.Global.ListenPort)
	}
	if cfg.Global.AppEnv != EnvProduction {
		t.Fatalf("AppEnv 默认应为 production，得到 %s", cfg.Global.AppEnv)
	}
	if !filepath.IsAbs(cfg.Global.RecordsPath) || !filepath.IsAbs(cfg.Global.KeysPath) {
		t.Fatalf("目录应被转换为绝对路径")
	}
	if cfg.Global.ShutdownTimeout.DurationValue() != 10*time.Second {
		t.Fatalf("ShutdownTimeout 默认应为 10s")
	}
	if cfg.Global.LogLevel != "debug" {
		t.Fatalf("LogLevel 应取自配置文件")
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeTempConfig(t, `ShutdownTimeout = 3`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ShutdownTimeout.DurationValue() != 3*time.Second {
		t.Fatalf("纯数字应按秒解析，得到 %v", cfg.Global.ShutdownTimeout.DurationValue())
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeTempConfig(t, `ShutdownTimeout = "boom"`)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadFailsWhenExplicitFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("缺失的配置文件应返回错误")
	}
}

func TestLoadOrDefaultsToleratesMissingFile(t *testing.T) {
	cfg, err := LoadOrDefaults(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("缺失默认配置文件时不应失败: %v", err)
	}
	if cfg.Global.RecordsPath == "" {
		t.Fatalf("RecordsPath 应使用默认值")
	}
}

func TestLoadHonoursLegacyEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadOrDefaults(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefaults 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 9000 {
		t.Fatalf("PORT 应覆盖 ListenPort，得到 %d", cfg.Global.ListenPort)
	}
	if !cfg.Global.IsDevelopment() {
		t.Fatalf("APP_ENV 应覆盖 AppEnv")
	}
}
