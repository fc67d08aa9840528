package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// timeEncoder prefixes and formats entry times.
func timeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(config.Prefix + t.Format(config.TimeFormat))
	}
}

// GetEncoder returns a JSON or console encoder for config.
func GetEncoder(config Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    config.ZapEncodeLevel(),
		EncodeTime:     timeEncoder(config),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func gatedLevel(level zapcore.Level, gate zapcore.LevelEnabler) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool {
		return l == level && gate.Enabled(l)
	}
}

// buildCores creates one core per level, each writing to its own file and
// enabled only while gate admits its level. Files are opened on first write.
func buildCores(config Config, gate zapcore.LevelEnabler) []zapcore.Core {
	cores := make([]zapcore.Core, 0, 7)
	for level := zapcore.DebugLevel; level <= zapcore.FatalLevel; level++ {
		writer := writeSyncer(config, level.String())
		cores = append(cores, zapcore.NewCore(GetEncoder(config), writer, gatedLevel(level, gate)))
	}
	return cores
}
