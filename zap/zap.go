// Package zap builds logr loggers backed by go.uber.org/zap.
package zap

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	zaplib "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a logr.Logger writing to stderr at the given level
// ("debug", "info", "warn", "error"). Development mode switches to
// console encoding with caller information.
func NewLogger(level string, development bool) (logr.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return logr.Discard(), fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}

	cfg := zaplib.NewProductionConfig()
	if development {
		cfg = zaplib.NewDevelopmentConfig()
	}
	cfg.Level = zaplib.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	z, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("build logger: %w", err)
	}
	return zapr.NewLogger(z), nil
}

// NewTestLogger returns a logger writing to core, typically a zaptest observer.
func NewTestLogger(core zapcore.Core) logr.Logger {
	return zapr.NewLogger(zaplib.New(core))
}
