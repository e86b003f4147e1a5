// Package config loads graphpad server configuration from a TOML file.
//
// Every field has a default, so the server runs with no config file at all;
// a file overrides only what it sets. Flags (see internal/cli) override the
// file in turn.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/graphpad/pkg/errors"
	"github.com/matzehuels/graphpad/pkg/trace"
)

// Cache backend names accepted in the config file.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config is the root configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
	Trace  TraceConfig  `toml:"trace"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080" or "127.0.0.1:8080".
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the render memoization backend.
type CacheConfig struct {
	// Backend is one of "memory", "redis", or "none".
	Backend string `toml:"backend"`

	// TTL is how long rendered SVGs stay cached. Zero means no expiry.
	TTL duration `toml:"ttl"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// LogConfig configures the server logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// TraceConfig mirrors trace.Config in file-friendly form.
type TraceConfig struct {
	Enabled          bool     `toml:"enabled"`
	Categories       []string `toml:"categories"` // empty means all
	Levels           []string `toml:"levels"`     // empty means all
	UseGroups        bool     `toml:"use_groups"`
	DefaultCollapsed bool     `toml:"default_collapsed"`
}

// duration wraps time.Duration so TOML files can say ttl = "15m".
type duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is present:
// listen on :8080, in-memory cache with a one-hour TTL, info logging,
// tracing enabled with grouping.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     duration(time.Hour),
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Log: LogConfig{Level: "info"},
		Trace: TraceConfig{
			Enabled:   true,
			UseGroups: true,
		},
	}
}

// Load reads the TOML file at path on top of the defaults.
// An empty path returns the defaults unchanged; a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config file %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config file %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unknown backend and level names.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend: %q (must be memory, redis, or none)", c.Cache.Backend)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log level: %q", c.Log.Level)
	}

	for _, cat := range c.Trace.Categories {
		if !knownCategory(cat) {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown trace category: %q", cat)
		}
	}
	for _, lvl := range c.Trace.Levels {
		if !knownLevel(lvl) {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown trace level: %q", lvl)
		}
	}
	return nil
}

// TracerConfig converts the file form to a trace.Config. Empty category or
// level lists enable everything in that dimension.
func (c Config) TracerConfig() trace.Config {
	tc := trace.DefaultConfig()
	tc.Enabled = c.Trace.Enabled
	tc.UseGroups = c.Trace.UseGroups
	tc.DefaultCollapsed = c.Trace.DefaultCollapsed

	if len(c.Trace.Categories) > 0 {
		tc.Categories = make(map[trace.Category]bool)
		for _, cat := range c.Trace.Categories {
			tc.Categories[trace.Category(cat)] = true
		}
	}
	if len(c.Trace.Levels) > 0 {
		tc.Levels = make(map[trace.Level]bool)
		for _, lvl := range c.Trace.Levels {
			tc.Levels[trace.Level(lvl)] = true
		}
	}
	return tc
}

func knownCategory(name string) bool {
	for _, c := range trace.Categories() {
		if string(c) == name {
			return true
		}
	}
	return false
}

func knownLevel(name string) bool {
	for _, l := range trace.Levels() {
		if string(l) == name {
			return true
		}
	}
	return false
}
