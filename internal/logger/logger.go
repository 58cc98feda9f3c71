// Package logger builds the zap loggers used across trendsim.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the process-wide logger. Debug mode gives a colored
// console encoder at debug level; otherwise output is production JSON
// with ISO-8601 timestamps and a service field, so log lines from
// several trendsim instances stay attributable in an aggregated stream.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build(zap.Fields(zap.String("service", "trendsim")))
}

// Must is New for startup paths: if the logger cannot be built there is
// nowhere to report the failure, so panic.
func Must(debug bool) *zap.Logger {
	log, err := New(debug)
	if err != nil {
		panic(err)
	}
	return log
}
