package config

import (
	"time"

	"github.com/namelens/dentalnames/internal/ailink"
)

// Config is the complete application configuration.
//
// Values are layered: built-in defaults, then the user config file
// ($XDG_CONFIG_HOME/dentalnames/config.yaml or --config), then a `.env`
// file and DENTALNAMES_* environment variables, then runtime overrides.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Generation GenerationConfig `mapstructure:"generation"`
	Domain     DomainConfig     `mapstructure:"domain"`
	AILink     ailink.Config    `mapstructure:"ailink"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
	Debug      DebugConfig      `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSOrigin is allowed to call /api/v1 from a browser. Empty disables CORS.
	CORSOrigin string `mapstructure:"cors_origin"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// RateLimitConfig selects the window store and the per-scope limits.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Store is one of memory, redis, libsql.
	Store string      `mapstructure:"store"`
	Redis RedisConfig `mapstructure:"redis"`

	Burst LimitConfig `mapstructure:"burst"`
	Daily LimitConfig `mapstructure:"daily"`
}

// LimitConfig is a fixed-window limit.
type LimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// RedisConfig addresses a redis server.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// GenerationConfig tunes the validating retry loop.
type GenerationConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxJitter   time.Duration `mapstructure:"max_jitter"`
}

// DomainConfig contains domain checker configuration.
type DomainConfig struct {
	Extensions    []string          `mapstructure:"extensions"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	ConfirmRDAP   bool              `mapstructure:"confirm_rdap"`
	RDAPOverrides map[string]string `mapstructure:"rdap_overrides"`
	Cache         DomainCacheConfig `mapstructure:"cache"`
}

// DomainCacheConfig controls how long lookups are cached per verdict.
type DomainCacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	AvailableTTL time.Duration `mapstructure:"available_ttl"`
	TakenTTL     time.Duration `mapstructure:"taken_ttl"`
	UnknownTTL   time.Duration `mapstructure:"unknown_ttl"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
