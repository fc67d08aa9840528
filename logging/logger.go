package logging

import (
	"github.com/leeforge/plugincatalog/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger that tees per-level cores into rotated files and,
// optionally, stdout. Zero fields of config take their defaults.
func New(config Config) (*zap.Logger, error) {
	logger, _, err := newLogger(config)
	return logger, err
}

// newLogger also returns the level gate shared by every core, so the
// minimum level can be moved after construction.
func newLogger(config Config) (*zap.Logger, zap.AtomicLevel, error) {
	fillDefaults(&config)
	if err := validation.Struct(config); err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	level := zap.NewAtomicLevelAt(config.TransportLevel())
	logger := zap.New(zapcore.NewTee(buildCores(config, level)...))
	if config.ShowLineNumber {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger, level, nil
}

// MustNew is New that panics on an invalid config.
func MustNew(config Config) *zap.Logger {
	logger, err := New(config)
	if err != nil {
		panic(err)
	}
	return logger
}

func fillDefaults(config *Config) {
	d := DefaultConfig()
	if config.Director == "" {
		config.Director = d.Director
	}
	if config.Level == "" {
		config.Level = d.Level
	}
	if config.EncodeLevel == "" {
		config.EncodeLevel = d.EncodeLevel
	}
	if config.TimeFormat == "" {
		config.TimeFormat = d.TimeFormat
	}
	if config.Format == "" {
		config.Format = d.Format
	}
	if config.MaxAge == 0 {
		config.MaxAge = d.MaxAge
	}
	if config.MaxSize == 0 {
		config.MaxSize = d.MaxSize
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = d.MaxBackups
	}
}
