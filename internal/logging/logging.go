// Package logging builds the zap logger used by the devinfo CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vitalis-app/deviceinfo"
)

// New returns a logger writing human-readable lines to stderr and, when file
// is set, JSON lines to that file. Level names follow deviceinfo.LogLevel;
// "none" yields a no-op logger.
func New(level, file string) (*zap.Logger, error) {
	return newLogger(level, file, os.Stderr)
}

func newLogger(level, file string, console io.Writer) (*zap.Logger, error) {
	parsed, err := deviceinfo.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	if parsed == deviceinfo.LogLevelNone {
		return zap.NewNop(), nil
	}
	zl := zapLevel(parsed)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleConfig := encoderConfig
	consoleConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(console), zl),
	}

	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), zl))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func zapLevel(l deviceinfo.LogLevel) zapcore.Level {
	switch l {
	case deviceinfo.LogLevelDebug:
		return zapcore.DebugLevel
	case deviceinfo.LogLevelInfo:
		return zapcore.InfoLevel
	case deviceinfo.LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
