// Package config loads the devinfo CLI configuration from YAML files and
// environment variables.
// Precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vitalis-app/deviceinfo"
)

// Output formats understood by the CLI.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all CLI configuration.
type Config struct {
	SDK     SDKConfig     `yaml:"sdk"`
	Output  OutputConfig  `yaml:"output"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// SDKConfig mirrors deviceinfo.Config. LogLevel stays a string here so a
// bad value is reported by Validate rather than by the YAML decoder.
type SDKConfig struct {
	CachingEnabled         bool   `yaml:"caching_enabled"`
	CacheExpirationMinutes int    `yaml:"cache_expiration_minutes"`
	IncludeUnavailable     bool   `yaml:"include_unavailable"`
	LogLevel               string `yaml:"log_level"`
}

// OutputConfig selects how reports are printed.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// WatchConfig holds settings for the periodic refresh loop.
type WatchConfig struct {
	Interval Duration `yaml:"interval"`
}

// LoggingConfig holds settings for the CLI's own log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	sdk := deviceinfo.DefaultConfig()
	return &Config{
		SDK: SDKConfig{
			CachingEnabled:         sdk.CachingEnabled,
			CacheExpirationMinutes: sdk.CacheExpirationMinutes,
			IncludeUnavailable:     sdk.IncludeUnavailable,
			LogLevel:               sdk.LogLevel.String(),
		},
		Output: OutputConfig{
			Format: FormatAuto,
		},
		Watch: WatchConfig{
			Interval: Duration{30 * time.Second},
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// ToSDK converts the sdk section into a deviceinfo.Config.
func (c *Config) ToSDK() (deviceinfo.Config, error) {
	level, err := deviceinfo.ParseLogLevel(c.SDK.LogLevel)
	if err != nil {
		return deviceinfo.Config{}, fmt.Errorf("sdk.log_level: %w", err)
	}
	return deviceinfo.Config{
		CachingEnabled:         c.SDK.CachingEnabled,
		CacheExpirationMinutes: c.SDK.CacheExpirationMinutes,
		IncludeUnavailable:     c.SDK.IncludeUnavailable,
		LogLevel:               level,
	}, nil
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Format             string
	LogLevel           string
	Interval           time.Duration
	IncludeUnavailable bool
	NoCache            bool
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > YAML file > defaults.
//
// An optional configPath argument controls file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value → use that path ("" means no file)
//
// A missing file is not an error; an unreadable or malformed one is.
func LoadLayered(cli CLIOverrides, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.Format != "" {
		cfg.Output.Format = cli.Format
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.Interval > 0 {
		cfg.Watch.Interval = Duration{cli.Interval}
	}
	if cli.IncludeUnavailable {
		cfg.SDK.IncludeUnavailable = true
	}
	if cli.NoCache {
		cfg.SDK.CachingEnabled = false
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Encode writes cfg as YAML to w.
func Encode(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

// applyEnvOverrides applies DEVINFO_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DEVINFO_CACHING_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEVINFO_CACHING_ENABLED: %w", err)
		}
		cfg.SDK.CachingEnabled = b
	}
	if v := os.Getenv("DEVINFO_CACHE_EXPIRATION_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DEVINFO_CACHE_EXPIRATION_MINUTES: %w", err)
		}
		cfg.SDK.CacheExpirationMinutes = n
	}
	if v := os.Getenv("DEVINFO_INCLUDE_UNAVAILABLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEVINFO_INCLUDE_UNAVAILABLE: %w", err)
		}
		cfg.SDK.IncludeUnavailable = b
	}
	if v := os.Getenv("DEVINFO_SDK_LOG_LEVEL"); v != "" {
		cfg.SDK.LogLevel = v
	}
	if v := os.Getenv("DEVINFO_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("DEVINFO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DEVINFO_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	return nil
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	if _, err := c.ToSDK(); err != nil {
		return err
	}
	if _, err := deviceinfo.ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Output.Format) {
	case FormatAuto, FormatText, FormatJSON:
	default:
		return fmt.Errorf("output.format must be one of auto, text, json (got: %s)", c.Output.Format)
	}
	if c.Watch.Interval.Duration <= 0 {
		return fmt.Errorf("watch.interval must be positive (got: %s)", c.Watch.Interval.Duration)
	}
	return nil
}
