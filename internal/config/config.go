package config

import (
	"time"
)

// Config represents the complete application configuration.
// Defaults are registered on the shared viper instance; user overrides come
// from the config file and ASKBOX_* environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Counter   CounterConfig   `mapstructure:"counter"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Summarize SummarizeConfig `mapstructure:"summarize"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CounterConfig selects and configures the shared counter store backing the
// rate limiter and usage accounting.
type CounterConfig struct {
	// Backend is "redis" or "memory". The memory backend is process-local and
	// suitable only for development and tests.
	Backend string `mapstructure:"backend"`

	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains connection settings for the Redis counter store.
type RedisConfig struct {
	Addrs       []string      `mapstructure:"addrs"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// AdmissionConfig contains rate limiter and content filter settings.
type AdmissionConfig struct {
	// FailMode is "fail-open" (default) or "fail-closed" and controls limiter
	// behavior when the counter store is unavailable.
	FailMode string `mapstructure:"fail_mode"`

	// DuplicateCapacity caps the number of fingerprints remembered per
	// (identity, question) bucket.
	DuplicateCapacity int `mapstructure:"duplicate_capacity"`

	// Policies overrides the built-in limit policies, keyed by scope name.
	Policies map[string]PolicyConfig `mapstructure:"policies"`
}

// PolicyConfig is one scope's limit policy. Zero tier maxima leave that tier
// unenforced.
type PolicyConfig struct {
	PerMinute int           `mapstructure:"per_minute"`
	PerHour   int           `mapstructure:"per_hour"`
	PerDay    int           `mapstructure:"per_day"`
	Window    time.Duration `mapstructure:"window"`
	Message   string        `mapstructure:"message"`
}

// SummarizeConfig contains completion provider and batching settings.
type SummarizeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`

	// BatchSize and MaxInterval drive the background worker: a summary is
	// generated once a question accumulates batch_size new responses or
	// max_interval has elapsed since the first unsummarized one.
	BatchSize   int           `mapstructure:"batch_size"`
	MaxInterval time.Duration `mapstructure:"max_interval"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also available at the main HTTP port via /metrics
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	// Enabled controls whether debug mode is active
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
