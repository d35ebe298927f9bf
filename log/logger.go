package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// New returns the same logger all the time. The first call decides
// whether debug messages are written.
func New(verbose bool) *zap.Logger {
	if logger != nil {
		return logger
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	base, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	logger = base
	return logger
}
