// Package config loads and validates archivist configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Pagination bounds for the archive list.
const (
	DefaultPageSize = 12
	MinPageSize     = 5
	MaxPageSize     = 24
)

// Fetch retry parameters.
const (
	FetchMaxRetries        = 3
	FetchInitialDelay      = 1000 * time.Millisecond
	FetchBackoffMultiplier = 2
)

// Rendering knobs shared with the stylesheet.
const (
	AriaDescriptionMaxChars = 60
	MQSheet                 = "(max-width: 767.98px)"
	MQPhone                 = "(max-width: 767.98px)"
	MQDesktop               = "(min-width: 768px)"
	BPDesktop               = 1024
)

// Defaults for the archive data source and presentation.
const (
	DefaultEndpoint = "/archive/list.json"
	DefaultLocale   = "it-IT"
)

// Sink kinds accepted by sink.kind.
const (
	SinkMemory = "memory"
	SinkLocal  = "local"
	SinkGCS    = "gcs"
)

// Config captures all archivist configuration knobs loaded via Viper.
type Config struct {
	Archive ArchiveConfig `mapstructure:"archive"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Sink    SinkConfig    `mapstructure:"sink"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ArchiveConfig describes the data source and list presentation.
type ArchiveConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Version  string `mapstructure:"version"`
	PageSize int    `mapstructure:"page_size"`
	Locale   string `mapstructure:"locale"`
}

// FetchConfig configures the HTTP client and its retry behavior.
type FetchConfig struct {
	MaxRetries        int     `mapstructure:"max_retries"`
	InitialDelayMs    int     `mapstructure:"initial_delay_ms"`
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	UserAgent         string  `mapstructure:"user_agent"`
}

// SinkConfig selects where the rendered page is written.
type SinkConfig struct {
	Kind      string `mapstructure:"kind"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Object    string `mapstructure:"object"`
}

// LoggingConfig toggles zap development features and pipeline diagnostics.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	Debug       bool `mapstructure:"debug"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARCHIVIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive.endpoint", DefaultEndpoint)
	v.SetDefault("archive.version", "")
	v.SetDefault("archive.page_size", DefaultPageSize)
	v.SetDefault("archive.locale", DefaultLocale)
	v.SetDefault("fetch.max_retries", FetchMaxRetries)
	v.SetDefault("fetch.initial_delay_ms", int(FetchInitialDelay/time.Millisecond))
	v.SetDefault("fetch.backoff_multiplier", FetchBackoffMultiplier)
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.user_agent", "archivist/1.0")
	v.SetDefault("sink.kind", SinkLocal)
	v.SetDefault("sink.local_dir", "public")
	v.SetDefault("sink.gcs_bucket", "")
	v.SetDefault("sink.object", "archive/index.html")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.debug", false)
	v.SetDefault("metrics.textfile", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Archive.PageSize <= 0 {
		return fmt.Errorf("archive.page_size must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if c.Fetch.InitialDelayMs < 0 {
		return fmt.Errorf("fetch.initial_delay_ms must be >= 0")
	}
	if c.Fetch.BackoffMultiplier < 1 {
		return fmt.Errorf("fetch.backoff_multiplier must be >= 1")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.Sink.Object) == "" {
		return fmt.Errorf("sink.object must be set")
	}
	switch c.Sink.Kind {
	case SinkMemory:
	case SinkLocal:
		if strings.TrimSpace(c.Sink.LocalDir) == "" {
			return fmt.Errorf("sink.local_dir must be set when sink.kind is local")
		}
	case SinkGCS:
		if c.Sink.GCSBucket == "" {
			return fmt.Errorf("sink.gcs_bucket must be set when sink.kind is gcs")
		}
	default:
		return fmt.Errorf("sink.kind %q is not supported", c.Sink.Kind)
	}
	return nil
}

// InitialDelay converts the configured first retry delay into a duration.
func (c FetchConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMs) * time.Millisecond
}

// Timeout converts the per-request timeout into a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
