// Package logger holds the process-wide zap logger for Tracehub. Every
// entry carries service=tracehub. The json format is for deployments;
// console is for local runs.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "tracehub"

var (
	mu     sync.RWMutex
	global *zap.Logger
	level  = zap.NewAtomicLevel()
	once   sync.Once
)

// Init builds the global logger. Only the first call has any effect.
func Init(lvl, format string) error {
	var initErr error
	once.Do(func() {
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			initErr = fmt.Errorf("parse log level %q: %w", lvl, err)
			return
		}
		l, err := build(format)
		if err != nil {
			initErr = err
			return
		}
		set(l)
	})
	return initErr
}

func build(format string) (*zap.Logger, error) {
	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json", "":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = level
	cfg.InitialFields = map[string]any{"service": serviceName}

	l, err := cfg.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func set(l *zap.Logger) {
	mu.Lock()
	global = l
	mu.Unlock()
}

func get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		panic("logger.Init must be called before logging")
	}
	return global
}

// Level returns the active level.
func Level() zapcore.Level { return level.Level() }

// Replace swaps the global logger until restore is called. Tests use it
// with zaptest/observer to assert on emitted entries.
func Replace(l *zap.Logger) (restore func()) {
	mu.Lock()
	prev := global
	global = l.WithOptions(zap.AddCallerSkip(1))
	mu.Unlock()
	return func() { set(prev) }
}

func Debug(msg string, fields ...zap.Field) { get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { get().Error(msg, fields...) }

// Sync flushes buffered entries. It is a no-op before Init.
func Sync() error {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		return nil
	}
	return l.Sync()
}
