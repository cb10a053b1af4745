package ailink

import "time"

// Config defines provider configuration for model calls.
type Config struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`

	// PromptsDir overrides built-in prompts by slug.
	PromptsDir string `mapstructure:"prompts_dir"`

	// TraceFile appends every provider exchange as NDJSON when set.
	TraceFile string `mapstructure:"trace_file"`

	Debug DebugConfig `mapstructure:"debug"`

	// Providers is keyed by a user-defined instance id. AIProvider names the driver.
	Providers map[string]ProviderInstanceConfig `mapstructure:"providers"`

	// Routing maps a prompt slug to a provider instance id.
	Routing map[string]string `mapstructure:"routing"`
}

type DebugConfig struct {
	CaptureRawEnabled  bool `mapstructure:"capture_raw_enabled"`
	CaptureRawMaxBytes int  `mapstructure:"capture_raw_max_bytes"`
}

// ProviderInstanceConfig defines a configured provider instance (e.g. "primary-gemini").
type ProviderInstanceConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// AIProvider is the driver identifier: "openai" or "gemini".
	AIProvider string `mapstructure:"ai_provider"`

	// SelectionPolicy is "priority" (default) or "round_robin".
	SelectionPolicy string `mapstructure:"selection_policy"`

	// DefaultCredential forces the credential with this label when present.
	DefaultCredential string `mapstructure:"default_credential"`

	BaseURL string            `mapstructure:"base_url"`
	Models  map[string]string `mapstructure:"models"`
	Roles   []string          `mapstructure:"roles"`

	Credentials []CredentialConfig `mapstructure:"credentials"`
}

// CredentialConfig is a single credential for a provider instance.
type CredentialConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Label    string `mapstructure:"label"`
	APIKey   string `mapstructure:"api_key"`
	Priority int    `mapstructure:"priority"`
}

// Configured reports whether at least one provider is enabled.
func (c Config) Configured() bool {
	for _, p := range c.Providers {
		if p.Enabled {
			return true
		}
	}
	return false
}
