// Package logger builds the zap loggers used by the viewers and the field
// runtime.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a development logger with colored capital levels when verbose
// is set, and a no-op logger otherwise. outputPaths default to stderr; the
// terminal viewer passes a file because tcell owns the terminal.
func New(verbose bool, outputPaths ...string) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(zapcore.DebugLevel)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if len(outputPaths) > 0 {
		cfg.OutputPaths = outputPaths
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	lggr, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return lggr, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
