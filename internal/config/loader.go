// Package config provides centralized configuration management for dentalnames.
//
// Layers, lowest precedence first:
//  1. Built-in defaults (SetDefaults)
//  2. The user config file (--config, or config.yaml in the app config dir)
//  3. A `.env` file plus DENTALNAMES_* environment variables
//  4. Runtime overrides passed to Load
package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/pathfinder"
	"github.com/fulmenhq/gofulmen/schema"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/namelens/dentalnames/internal/appid"
)

var (
	// appConfig holds the current application configuration
	appConfig   *Config
	configMu    sync.RWMutex
	appIdentity *appidentity.Identity

	configFile string
)

//go:embed schemas/config.schema.json
var configSchema []byte

// EnvVarSpec defines environment variable mappings for config fields
// following the pattern: {PREFIX}{NAME} maps to config path
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// SetConfigFile pins the user config file. An explicit file must exist.
func SetConfigFile(path string) {
	configMu.Lock()
	defer configMu.Unlock()
	configFile = strings.TrimSpace(path)
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "2m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origin", "")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.store", "memory")
	v.SetDefault("ratelimit.redis.address", "localhost:6379")
	v.SetDefault("ratelimit.redis.password", "")
	v.SetDefault("ratelimit.redis.db", 0)
	v.SetDefault("ratelimit.redis.prefix", "dentalnames:")
	v.SetDefault("ratelimit.burst.requests", 10)
	v.SetDefault("ratelimit.burst.window", "1m")
	v.SetDefault("ratelimit.daily.requests", 10)
	v.SetDefault("ratelimit.daily.window", "24h")

	v.SetDefault("generation.max_attempts", 5)
	v.SetDefault("generation.base_delay", "1s")
	v.SetDefault("generation.max_jitter", "1s")

	v.SetDefault("domain.extensions", []string{".com", ".clinic", ".dentist"})
	v.SetDefault("domain.timeout", "5s")
	v.SetDefault("domain.confirm_rdap", false)
	v.SetDefault("domain.cache.enabled", false)
	v.SetDefault("domain.cache.available_ttl", "5m")
	v.SetDefault("domain.cache.taken_ttl", "1h")
	v.SetDefault("domain.cache.unknown_ttl", "30s")

	v.SetDefault("ailink.default_timeout", "60s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "SIMPLE")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.pprof_enabled", false)
}

// Load builds the configuration from every layer. It is safe to call again
// for a config reload.
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	if appIdentity == nil {
		identity, err := appid.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load app identity: %w", err)
		}
		appIdentity = identity
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	merged, err := readBaseLayers()
	if err != nil {
		return nil, err
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	applyAILinkDynamicEnvOverrides(envPrefix(), envOverrides)

	mergeInto(merged, envOverrides)
	for _, overrides := range runtimeOverrides {
		mergeInto(merged, overrides)
	}

	if err := validate(merged); err != nil {
		return nil, err
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	setConfig(cfg)
	return cfg, nil
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

// ConfigFileUsed reports the config file Load reads, or "" when none exists.
func ConfigFileUsed() string {
	configMu.RLock()
	explicit := configFile
	configMu.RUnlock()
	if explicit != "" {
		return explicit
	}
	path := DefaultConfigPath()
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func readBaseLayers() (map[string]any, error) {
	v := viper.New()
	SetDefaults(v)

	configMu.RLock()
	explicit := configFile
	configMu.RUnlock()

	path := ConfigFileUsed()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit == "" && errors.Is(err, os.ErrNotExist) {
				return v.AllSettings(), nil
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return v.AllSettings(), nil
}

// loadDotEnv loads `.env` from the working directory and, when different,
// from the repository root. Existing environment variables win.
func loadDotEnv() error {
	candidates := []string{".env"}
	if root, err := findProjectRoot(); err == nil {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}

	seen := map[string]bool{}
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("failed to load %s: %w", abs, err)
		}
	}
	return nil
}

// findProjectRoot walks up from the working directory looking for go.mod or .git.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := pathfinder.FindRepositoryRoot(cwd, []string{"go.mod", ".git"}, pathfinder.WithMaxDepth(10))
	if err != nil {
		return "", fmt.Errorf("project root not found: %w", err)
	}
	return root, nil
}

func validate(merged map[string]any) error {
	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to encode config for validation: %w", err)
	}
	validator, err := schema.NewValidator(configSchema)
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}
	diagnostics, err := validator.ValidateJSON(payload)
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	if len(diagnostics) == 0 {
		return nil
	}
	messages := make([]string, 0, len(diagnostics))
	for _, diag := range diagnostics {
		messages = append(messages, diag.Message)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}

// mergeInto deep-merges src into dst. Maps merge, everything else replaces.
func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		key = strings.ToLower(key)
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeInto(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}

func envPrefix() string {
	prefix := "DENTALNAMES_"
	if appIdentity != nil && appIdentity.EnvPrefix != "" {
		prefix = appIdentity.EnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}

// getEnvSpecs maps {PREFIX}{NAME} environment variables to config paths.
func getEnvSpecs() []EnvVarSpec {
	prefix := envPrefix()

	return []EnvVarSpec{
		// Server config
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		// Duration fields are parsed as strings and converted by mapstructure decode hook
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},
		{Name: prefix + "CORS_ORIGIN", Path: []string{"server", "cors_origin"}, Type: EnvString},

		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		// Store config
		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},

		// Rate limiting
		{Name: prefix + "RATELIMIT_ENABLED", Path: []string{"ratelimit", "enabled"}, Type: EnvBool},
		{Name: prefix + "RATELIMIT_STORE", Path: []string{"ratelimit", "store"}, Type: EnvString},
		{Name: prefix + "REDIS_ADDRESS", Path: []string{"ratelimit", "redis", "address"}, Type: EnvString},
		{Name: prefix + "REDIS_PASSWORD", Path: []string{"ratelimit", "redis", "password"}, Type: EnvString},
		{Name: prefix + "REDIS_DB", Path: []string{"ratelimit", "redis", "db"}, Type: EnvInt},
		{Name: prefix + "REDIS_PREFIX", Path: []string{"ratelimit", "redis", "prefix"}, Type: EnvString},
		{Name: prefix + "RATELIMIT_BURST_REQUESTS", Path: []string{"ratelimit", "burst", "requests"}, Type: EnvInt},
		{Name: prefix + "RATELIMIT_BURST_WINDOW", Path: []string{"ratelimit", "burst", "window"}, Type: EnvString},
		{Name: prefix + "RATELIMIT_DAILY_REQUESTS", Path: []string{"ratelimit", "daily", "requests"}, Type: EnvInt},
		{Name: prefix + "RATELIMIT_DAILY_WINDOW", Path: []string{"ratelimit", "daily", "window"}, Type: EnvString},

		// Generation retry
		{Name: prefix + "GENERATION_MAX_ATTEMPTS", Path: []string{"generation", "max_attempts"}, Type: EnvInt},
		{Name: prefix + "GENERATION_BASE_DELAY", Path: []string{"generation", "base_delay"}, Type: EnvString},
		{Name: prefix + "GENERATION_MAX_JITTER", Path: []string{"generation", "max_jitter"}, Type: EnvString},

		// Domain checks
		{Name: prefix + "DOMAIN_EXTENSIONS", Path: []string{"domain", "extensions"}, Type: EnvString},
		{Name: prefix + "DOMAIN_TIMEOUT", Path: []string{"domain", "timeout"}, Type: EnvString},
		{Name: prefix + "DOMAIN_CONFIRM_RDAP", Path: []string{"domain", "confirm_rdap"}, Type: EnvBool},
		{Name: prefix + "DOMAIN_CACHE_ENABLED", Path: []string{"domain", "cache", "enabled"}, Type: EnvBool},
		{Name: prefix + "DOMAIN_CACHE_AVAILABLE_TTL", Path: []string{"domain", "cache", "available_ttl"}, Type: EnvString},
		{Name: prefix + "DOMAIN_CACHE_TAKEN_TTL", Path: []string{"domain", "cache", "taken_ttl"}, Type: EnvString},
		{Name: prefix + "DOMAIN_CACHE_UNKNOWN_TTL", Path: []string{"domain", "cache", "unknown_ttl"}, Type: EnvString},

		// AILink config
		{Name: prefix + "AILINK_DEFAULT_PROVIDER", Path: []string{"ailink", "default_provider"}, Type: EnvString},
		{Name: prefix + "AILINK_DEFAULT_TIMEOUT", Path: []string{"ailink", "default_timeout"}, Type: EnvString},
		{Name: prefix + "AILINK_PROMPTS_DIR", Path: []string{"ailink", "prompts_dir"}, Type: EnvString},
		{Name: prefix + "AILINK_TRACE_FILE", Path: []string{"ailink", "trace_file"}, Type: EnvString},
		{Name: prefix + "AILINK_DEBUG_CAPTURE_RAW_ENABLED", Path: []string{"ailink", "debug", "capture_raw_enabled"}, Type: EnvBool},
		{Name: prefix + "AILINK_DEBUG_CAPTURE_RAW_MAX_BYTES", Path: []string{"ailink", "debug", "capture_raw_max_bytes"}, Type: EnvInt},

		// Metrics config
		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		{Name: prefix + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},

		{Name: prefix + "DEBUG_ENABLED", Path: []string{"debug", "enabled"}, Type: EnvBool},
		{Name: prefix + "DEBUG_PPROF_ENABLED", Path: []string{"debug", "pprof_enabled"}, Type: EnvBool},
	}
}

// appNames returns the config directory name and binary name, preferring
// the loaded app identity.
func appNames() (configName, binaryName string) {
	configName, binaryName = "dentalnames", "dentalnames"
	if appIdentity != nil {
		if v := strings.TrimSpace(appIdentity.ConfigName); v != "" {
			configName = v
		}
		if v := strings.TrimSpace(appIdentity.BinaryName); v != "" {
			binaryName = v
		}
	}
	return configName, binaryName
}

// DefaultConfigPath is $XDG_CONFIG_HOME/<app>/config.yaml, or "" when no
// config home can be determined.
func DefaultConfigPath() string {
	configName, _ := appNames()
	if dir := gfconfig.GetAppConfigDir(configName); strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return ""
}

// DefaultStorePath is the libsql file under the XDG data dir.
func DefaultStorePath() string {
	configName, binaryName := appNames()
	if dir := gfconfig.GetAppDataDir(configName); strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, binaryName+".db")
	}
	return "./" + binaryName + ".db"
}
