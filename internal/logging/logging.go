// Package logging builds escapeguard's zap logger, mirroring the
// teacher's convention of one process-wide structured logger configured
// once at startup and passed down by value.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger. verbose switches the level from info
// to debug and enables development-mode stack traces.
func New(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "ts"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Noop returns a logger that discards everything, used by tests that
// exercise code paths taking a *zap.SugaredLogger.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
