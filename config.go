package deviceinfo

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// LogLevel controls how much the SDK logs. Levels are ordered; a message
// is emitted when its level is at or above the configured one. LogLevelNone
// silences everything.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelNone
)

var logLevelNames = [...]string{"debug", "info", "warn", "error", "none"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelNone {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return logLevelNames[l]
}

// ParseLogLevel parses a level name, case-insensitively. "warning" is
// accepted for warn.
func ParseLogLevel(s string) (LogLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		return LogLevelWarn, nil
	}
	for i, n := range logLevelNames {
		if n == name {
			return LogLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LogLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseLogLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// zapLevel maps the level onto zap. LogLevelNone maps above Fatal so that
// nothing is enabled.
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel + 1
	}
}

// Config holds the SDK settings.
type Config struct {
	// CachingEnabled turns the per-category result cache on.
	CachingEnabled bool `json:"caching_enabled" yaml:"caching_enabled"`

	// CacheExpirationMinutes is how long a cached result stays valid. A
	// negative value expires entries immediately.
	CacheExpirationMinutes int `json:"cache_expiration_minutes" yaml:"cache_expiration_minutes"`

	// IncludeUnavailable makes CollectAll report non-Success outcomes
	// instead of omitting them.
	IncludeUnavailable bool `json:"include_unavailable" yaml:"include_unavailable"`

	LogLevel LogLevel `json:"log_level" yaml:"log_level"`
}

// DefaultConfig returns the default settings: caching on with a 30 minute
// expiration, unavailable categories omitted, errors logged.
func DefaultConfig() Config {
	return Config{
		CachingEnabled:         true,
		CacheExpirationMinutes: 30,
		IncludeUnavailable:     false,
		LogLevel:               LogLevelError,
	}
}

// Expiration returns the cache expiration as a duration.
func (c Config) Expiration() time.Duration {
	return time.Duration(c.CacheExpirationMinutes) * time.Minute
}
