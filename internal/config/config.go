// Package config loads and validates extraction configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/regwatch/regwatch-crawler/internal/pipeline"
	"github.com/regwatch/regwatch-crawler/internal/source"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig             `mapstructure:"logging"`
	Extract  ExtractConfig             `mapstructure:"extract"`
	HTTP     HTTPConfig                `mapstructure:"http"`
	Headless HeadlessConfig            `mapstructure:"headless"`
	Output   OutputConfig              `mapstructure:"output"`
	Metrics  MetricsConfig             `mapstructure:"metrics"`
	Sources  map[string]SourceOverride `mapstructure:"sources"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ExtractConfig governs run-wide extraction behavior.
type ExtractConfig struct {
	DaysBack int `mapstructure:"days_back"`
	MaxItems int `mapstructure:"max_items"`
}

// HTTPConfig configures the static HTTP client.
type HTTPConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	HostQPS        float64 `mapstructure:"host_qps"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// OutputConfig sets where run manifests and attachments land.
type OutputConfig struct {
	Dir           string `mapstructure:"dir"`
	AttachmentDir string `mapstructure:"attachment_dir"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// SourceOverride adjusts per-source pacing and caps without touching the
// built-in site definitions.
type SourceOverride struct {
	Enabled           *bool `mapstructure:"enabled"`
	MaxItems          int   `mapstructure:"max_items"`
	InterRequestMilli int   `mapstructure:"inter_request_ms"`
	TimeoutSeconds    int   `mapstructure:"timeout_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REGWATCH")
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
	v.SetDefault("logging.development", true)
	v.SetDefault("extract.days_back", source.DefaultDaysBack)
	v.SetDefault("extract.max_items", source.DefaultMaxItems)
	v.SetDefault("http.user_agent", source.DefaultUserAgent)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.host_qps", 0.0)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.attachment_dir", "out/attachments")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Extract.DaysBack <= 0 {
		return fmt.Errorf("extract.days_back must be > 0")
	}
	if c.Extract.MaxItems <= 0 {
		return fmt.Errorf("extract.max_items must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.HTTP.UserAgent) == "" {
		return fmt.Errorf("http.user_agent must be set")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	for name := range c.Sources {
		if _, err := source.ByName(name); err != nil {
			return fmt.Errorf("sources.%s: %w", name, err)
		}
	}
	return nil
}

// HTTPTimeout converts the configured HTTP timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavTimeout converts the headless navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// SourceEnabled reports whether a source should run. Sources default to
// enabled; an override can turn one off.
func (c Config) SourceEnabled(name string) bool {
	ov, ok := c.Sources[name]
	if !ok || ov.Enabled == nil {
		return true
	}
	return *ov.Enabled
}

// ApplySource overlays the run-wide caps and any per-source override onto a
// built-in source definition.
func (c Config) ApplySource(sc pipeline.SourceConfig) pipeline.SourceConfig {
	if c.Extract.MaxItems > 0 {
		sc.MaxItems = c.Extract.MaxItems
	}
	sc.RequestTimeout = c.HTTPTimeout()
	ov, ok := c.Sources[sc.Name]
	if !ok {
		return sc
	}
	if ov.MaxItems > 0 {
		sc.MaxItems = ov.MaxItems
	}
	if ov.InterRequestMilli > 0 {
		sc.InterRequestDelay = time.Duration(ov.InterRequestMilli) * time.Millisecond
	}
	if ov.TimeoutSeconds > 0 {
		sc.RequestTimeout = time.Duration(ov.TimeoutSeconds) * time.Second
	}
	return sc
}
