package model

import "time"

// Config holds the complete runtime configuration. Values come from the
// config file, LICVERIFY_* environment variables and CLI flags, merged by
// viper in that order of increasing priority.
type Config struct {
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Backoff  BackoffConfig  `yaml:"backoff" mapstructure:"backoff"`
	Pacing   PacingConfig   `yaml:"pacing" mapstructure:"pacing"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// RegistryConfig configures the SOAP endpoint and the client certificate
// used to authenticate against it.
type RegistryConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	CertFile string        `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string        `yaml:"key_file" mapstructure:"key_file"`
	CAFile   string        `yaml:"ca_file" mapstructure:"ca_file"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// BackoffConfig configures the adaptive rate-limit backoff.
type BackoffConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	DelayCeiling time.Duration `yaml:"delay_ceiling" mapstructure:"delay_ceiling"`
}

// PacingConfig configures the courtesy delay between requests and the
// optional hard request-rate cap.
type PacingConfig struct {
	MinDelayMS int `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	MaxDelayMS int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`

	// RequestsPerMinute caps the overall request rate when > 0. Zero
	// disables the cap; the courtesy delay alone paces the run.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// CacheConfig configures the optional in-run response cache. Duplicate
// input rows are still reported independently; the cache only avoids
// re-asking the registry the same question within one run.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig configures report and diagnostic output.
type OutputConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	FailuresPath string `yaml:"failures_path" mapstructure:"failures_path"`
	Verbose      bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			Timeout: 60 * time.Second,
		},
		Backoff: BackoffConfig{
			InitialDelay: 30 * time.Second,
			DelayCeiling: 60 * time.Minute,
		},
		Pacing: PacingConfig{
			MinDelayMS: 500,
			MaxDelayMS: 1500,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     10 * time.Minute,
		},
		Output: OutputConfig{
			Path: "report.csv",
		},
	}
}
