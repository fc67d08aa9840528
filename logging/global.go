package logging

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	globalLevel  *zap.AtomicLevel
	globalMu     sync.RWMutex
)

// Global returns the process logger. Until SetGlobal is called it is a
// no-op logger.
func Global() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// SetGlobal replaces the process logger and zap's global logger.
func SetGlobal(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
	zap.ReplaceGlobals(logger)
}

// Init builds a logger from config and installs it as the global logger.
// Its minimum level can later be changed with SetLevel.
func Init(config Config) (*zap.Logger, error) {
	logger, level, err := newLogger(config)
	if err != nil {
		return nil, err
	}
	SetGlobal(logger)

	globalMu.Lock()
	globalLevel = &level
	globalMu.Unlock()
	return logger, nil
}

// SetLevel moves the minimum level of the logger built by Init. It fails
// for unknown level names and when Init has not been called.
func SetLevel(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLevel == nil {
		return errors.New("logging: SetLevel before Init")
	}
	globalLevel.SetLevel(parsed)
	return nil
}
