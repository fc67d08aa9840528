package logging

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newFileWriter returns a rotated writer for <Director>/<level>.log.
func newFileWriter(config Config, level string) *lumberjack.Logger {
	_ = os.MkdirAll(config.Director, 0o755)
	return &lumberjack.Logger{
		Filename:   filepath.Join(config.Director, level+".log"),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	}
}

var (
	openWriters   []*lumberjack.Logger
	openWritersMu sync.Mutex
)

// writeSyncer returns the sink for level: the rotated file, stdout, or both.
func writeSyncer(config Config, level string) zapcore.WriteSyncer {
	var syncers []zapcore.WriteSyncer
	if config.LogInTerminal {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	if !config.DisableFiles {
		w := newFileWriter(config, level)
		openWritersMu.Lock()
		openWriters = append(openWriters, w)
		openWritersMu.Unlock()
		syncers = append(syncers, zapcore.AddSync(w))
	}
	if len(syncers) == 0 {
		return zapcore.AddSync(discard{})
	}
	return zapcore.NewMultiWriteSyncer(syncers...)
}

// CloseAllWriters closes every log file opened by New.
func CloseAllWriters() error {
	openWritersMu.Lock()
	defer openWritersMu.Unlock()

	var errs []error
	for _, w := range openWriters {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	openWriters = nil
	return errors.Join(errs...)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
