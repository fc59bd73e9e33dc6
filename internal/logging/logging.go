package logging

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type Field struct {
	Key   string
	Value any
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

type zapLogger struct {
	z     *zap.Logger
	level Level
}

// New returns a logger writing key=value console lines to out.
func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stderr
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.MessageKey = "msg"
	encoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder
	encoderCfg.ConsoleSeparator = " "
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(out),
		zapLevel(level),
	)
	return &zapLogger{z: zap.New(core), level: level}
}

// NewFromZap adapts an existing zap logger.
func NewFromZap(z *zap.Logger, level Level) Logger {
	if z == nil {
		return Nop()
	}
	return &zapLogger{z: z, level: level}
}

func Nop() Logger {
	return &zapLogger{z: zap.NewNop(), level: Error}
}

func (l *zapLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level >= l.level
}

func (l *zapLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	return &zapLogger{z: l.z.With(zapFields(fields)...), level: l.level}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *zapLogger) log(level Level, msg string, fields ...Field) {
	if l == nil || l.z == nil || level < l.level {
		return
	}
	zf := zapFields(fields)
	switch level {
	case Debug:
		l.z.Debug(msg, zf...)
	case Warn:
		l.z.Warn(msg, zf...)
	case Error:
		l.z.Error(msg, zf...)
	default:
		l.z.Info(msg, zf...)
	}
}

func zapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		switch v := field.Value.(type) {
		case nil:
			out = append(out, zap.Skip())
		case error:
			out = append(out, zap.NamedError(field.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(field.Key, v))
		case time.Time:
			out = append(out, zap.Time(field.Key, v))
		default:
			out = append(out, zap.Any(field.Key, v))
		}
	}
	return out
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case Debug:
		return zapcore.DebugLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func NewRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf[:])
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}
