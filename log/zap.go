package log

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogger writes info and above to stdout.
var DefaultLogger Logger = NewZap(InfoLevel, os.Stdout)

// Zap implements Logger on top of a sugared zap logger.
type Zap struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	level  Level
}

var _ Logger = (*Zap)(nil)

// NewZap builds a console-encoded zap logger writing to writers (stdout when
// none are given).
func NewZap(level Level, writers ...io.Writer) *Zap {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, w := range writers {
		syncers = append(syncers, zapcore.AddSync(w))
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zap.CombineWriteSyncers(syncers...),
		toZapLevel(level),
	)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Zap{logger: logger, sugar: logger.Sugar(), level: level}
}

// NewZapFrom wraps an existing zap logger.
func NewZapFrom(logger *zap.Logger) *Zap {
	if logger == nil {
		logger = zap.NewNop()
	}
	level := InfoLevel
	switch logger.Level() {
	case zapcore.DebugLevel:
		level = DebugLevel
	case zapcore.WarnLevel:
		level = WarningLevel
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		level = ErrorLevel
	}
	return &Zap{logger: logger, sugar: logger.Sugar(), level: level}
}

func (z *Zap) Debugf(format string, args ...any) { z.sugar.Debugf(format, args...) }
func (z *Zap) Infof(format string, args ...any)  { z.sugar.Infof(format, args...) }
func (z *Zap) Warnf(format string, args ...any)  { z.sugar.Warnf(format, args...) }
func (z *Zap) Errorf(format string, args ...any) { z.sugar.Errorf(format, args...) }

// With returns a child logger carrying keyValues as structured fields.
func (z *Zap) With(keyValues ...any) Logger {
	if len(keyValues) == 0 {
		return z
	}
	fields := make([]zap.Field, 0, (len(keyValues)+1)/2)
	for i := 0; i < len(keyValues); i += 2 {
		if i+1 >= len(keyValues) {
			fields = append(fields, zap.Any("_", keyValues[i]))
			break
		}
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, toZapField(key, keyValues[i+1]))
	}
	child := z.logger.With(fields...)
	return &Zap{logger: child, sugar: child.Sugar(), level: z.level}
}

// LogLevel returns the minimum enabled level.
func (z *Zap) LogLevel() Level {
	return z.level
}

// Sync flushes buffered entries.
func (z *Zap) Sync() error {
	return z.logger.Sync()
}

func toZapField(key string, val any) zap.Field {
	switch v := val.(type) {
	case string:
		return zap.String(key, v)
	case int:
		return zap.Int(key, v)
	case int64:
		return zap.Int64(key, v)
	case bool:
		return zap.Bool(key, v)
	case float64:
		return zap.Float64(key, v)
	case error:
		return zap.NamedError(key, v)
	default:
		return zap.Any(key, val)
	}
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarningLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02T15:04:05.000Z0700"))
		},
	}
}
