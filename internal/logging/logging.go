// Package logging builds the agent's zap logger and provides secret
// scrubbing for operator-facing output.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// redactionMarker replaces the tenant key wherever it would otherwise leak
// into log output.
const redactionMarker = "[REDACTED]"

// New creates a logger that writes human-readable lines to stdout and, when
// dir is non-empty, structured JSON to <dir>/blackbox-agent.log. Failure to
// open the log file degrades to console-only logging.
func New(level, dir string) *zap.Logger {
	lvl := parseLevel(level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		lvl,
	)

	cores := []zapcore.Core{consoleCore}

	if dir != "" {
		if err := os.MkdirAll(dir, 0750); err == nil {
			path := filepath.Join(dir, "blackbox-agent.log")
			file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
			if err == nil {
				fileCore := zapcore.NewCore(
					zapcore.NewJSONEncoder(encoderConfig),
					zapcore.AddSync(file),
					lvl,
				)
				cores = append(cores, fileCore)
			}
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Scrub removes every occurrence of the tenant key from a message before it
// is logged. An empty key scrubs nothing.
func Scrub(msg, tenantKey string) string {
	if tenantKey == "" {
		return msg
	}
	return strings.ReplaceAll(msg, tenantKey, redactionMarker)
}
