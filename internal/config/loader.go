// Package config provides centralized configuration management for askbox.
// Defaults live on the shared viper instance; file and environment overrides
// are decoded into the typed Config via mapstructure.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const appName = "askbox"

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers all configuration defaults on the viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("counter.backend", "memory")
	v.SetDefault("counter.redis.addrs", []string{"localhost:6379"})
	v.SetDefault("counter.redis.password", "")
	v.SetDefault("counter.redis.db", 0)
	v.SetDefault("counter.redis.key_prefix", "askbox")
	v.SetDefault("counter.redis.pool_size", 20)
	v.SetDefault("counter.redis.dial_timeout", "5s")

	v.SetDefault("admission.fail_mode", "fail-open")
	v.SetDefault("admission.duplicate_capacity", 100)

	v.SetDefault("summarize.base_url", "https://api.openai.com/v1")
	v.SetDefault("summarize.api_key", "")
	v.SetDefault("summarize.model", "gpt-4o-mini")
	v.SetDefault("summarize.timeout", "60s")
	v.SetDefault("summarize.batch_size", 10)
	v.SetDefault("summarize.max_interval", "15m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.pprof_enabled", false)
}

// Load decodes the viper settings into a typed Config and validates it.
// Safe to call multiple times (e.g., for config reload).
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)

	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// runtime failures deep inside the admission layer.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Admission.FailMode {
	case "", "fail-open", "fail-closed":
	default:
		return fmt.Errorf("invalid admission fail mode %q (want fail-open or fail-closed)", c.Admission.FailMode)
	}

	switch c.Counter.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("invalid counter backend %q (want memory or redis)", c.Counter.Backend)
	}

	if c.Counter.Backend == "redis" && len(c.Counter.Redis.Addrs) == 0 {
		return fmt.Errorf("counter backend is redis but no addresses configured")
	}

	for scope, policy := range c.Admission.Policies {
		if policy.PerMinute < 0 || policy.PerHour < 0 || policy.PerDay < 0 {
			return fmt.Errorf("negative limit in admission policy for scope %q", scope)
		}
		if policy.Window < 0 {
			return fmt.Errorf("negative window in admission policy for scope %q", scope)
		}
	}

	if c.Summarize.BatchSize < 1 {
		return fmt.Errorf("summarize batch size must be at least 1, got %d", c.Summarize.BatchSize)
	}
	if c.Summarize.MaxInterval < time.Minute {
		return fmt.Errorf("summarize max interval must be at least 1m, got %s", c.Summarize.MaxInterval)
	}

	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(appName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	return gfconfig.GetAppDataDir(appName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := gfconfig.GetAppDataDir(appName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + appName + ".db"
	}
	return filepath.Join(dataDir, appName+".db")
}
