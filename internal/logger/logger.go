package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a console logger for the given level. Unknown levels fall back to info.
func New(level string) *Logger {
	return newWithEncoder(level, zapcore.NewConsoleEncoder(encoderConfig()), os.Stdout)
}

// NewStderr is New writing to stderr, for command line tools that print results on stdout.
func NewStderr(level string) *Logger {
	return newWithEncoder(level, zapcore.NewConsoleEncoder(encoderConfig()), os.Stderr)
}

// NewForEnvironment switches to JSON output in production.
func NewForEnvironment(env, level string) *Logger {
	if env == "production" {
		return newWithEncoder(level, zapcore.NewJSONEncoder(encoderConfig()), os.Stdout)
	}
	return New(level)
}

// NewNop discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func newWithEncoder(level string, encoder zapcore.Encoder, out *os.File) *Logger {
	core := zapcore.NewCore(encoder, zapcore.Lock(out), parseLevel(level))
	return &Logger{
		sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
	}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugf(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalf(msg, args...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// IsDebug reports whether debug entries are emitted.
func (l *Logger) IsDebug() bool {
	return l.sugar.Desugar().Core().Enabled(zapcore.DebugLevel)
}
