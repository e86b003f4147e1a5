package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/graphpad/pkg/errors"
	"github.com/matzehuels/graphpad/pkg/trace"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphpad.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != CacheMemory {
		t.Errorf("Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL.Duration() != time.Hour {
		t.Errorf("TTL = %v", cfg.Cache.TTL.Duration())
	}
	if !cfg.Trace.Enabled || !cfg.Trace.UseGroups {
		t.Error("tracing should default to enabled with grouping")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = "127.0.0.1:9999"

[cache]
backend = "redis"
ttl = "15m"

[cache.redis]
addr = "redis:6379"
db = 2

[log]
level = "debug"

[trace]
enabled = true
categories = ["engine", "board"]
levels = ["warn", "error"]
use_groups = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.Redis.Addr != "redis:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("cache config not applied: %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration() != 15*time.Minute {
		t.Errorf("TTL = %v", cfg.Cache.TTL.Duration())
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}

	tc := cfg.TracerConfig()
	if !tc.Categories[trace.CategoryEngine] || !tc.Categories[trace.CategoryBoard] {
		t.Error("listed categories should be enabled")
	}
	if tc.Categories[trace.CategoryServer] {
		t.Error("unlisted categories should be disabled")
	}
	if tc.Levels[trace.LevelInfo] || !tc.Levels[trace.LevelWarn] {
		t.Error("level mask not applied")
	}
	if tc.UseGroups {
		t.Error("use_groups = false should carry through")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestValidateRejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad backend", func(c *Config) { c.Cache.Backend = "mongodb" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad trace category", func(c *Config) { c.Trace.Categories = []string{"render"} }},
		{"bad trace level", func(c *Config) { c.Trace.Levels = []string{"fatal"} }},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("%s: err = %v, want INVALID_CONFIG", tt.name, err)
		}
	}
}

func TestTracerConfigDefaultsEnableAll(t *testing.T) {
	tc := Default().TracerConfig()
	for _, c := range trace.Categories() {
		if !tc.Categories[c] {
			t.Errorf("category %s should default to enabled", c)
		}
	}
	for _, l := range trace.Levels() {
		if !tc.Levels[l] {
			t.Errorf("level %s should default to enabled", l)
		}
	}
}
