package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	global *zap.SugaredLogger
)

// Logger returns the global sugared logger, initializing it at info level
// on first use.
func Logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = newLogger(zapcore.InfoLevel)
	}
	return global
}

// Init reconfigures the global logger with the given level
// ("debug", "info", "warn", "error").
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		_ = global.Sync()
	}
	global = newLogger(lvl)
	return nil
}

func newLogger(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		// The development config cannot fail to build; fall back anyway.
		logger = zap.NewNop()
	}
	return logger.Sugar()
}
