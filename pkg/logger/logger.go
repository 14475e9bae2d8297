// Package logger provides a thin structured-logging facade over zap.
//
// Library packages accept a [Logger] via their options and fall back to the
// process-wide [Default] when none is given. Binaries typically install a
// production logger at startup:
//
//	logger.SetDefault(logger.MustProduction())
//	defer logger.SyncDefault()
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging contract used throughout the module.
// Key/value pairs follow zap's sugared convention: alternating string keys
// and arbitrary values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a child logger that includes the given key/value pairs
	// in every message.
	With(keysAndValues ...any) Logger

	// Sync flushes any buffered log entries.
	Sync() error
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New wraps a zap logger in the [Logger] interface.
func New(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return New(zap.NewNop())
}

// MustProduction builds a production-configured logger (JSON, info level)
// and panics if construction fails.
func MustProduction() Logger {
	return New(zap.Must(zap.NewProduction()))
}

// MustProductionLevel builds a production-configured logger at the given
// level ("debug", "info", "warn", "error"). An unknown level falls back
// to info rather than failing startup.
func MustProductionLevel(level string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	return New(zap.Must(cfg.Build()))
}

func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewDevelopment builds a human-readable development logger, falling back
// to a no-op logger on construction failure.
func NewDevelopment() Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return NewNop()
	}
	return New(l)
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.s.Errorw(msg, kv...) }

func (z *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: z.s.With(kv...)}
}

func (z *zapLogger) Sync() error { return z.s.Sync() }

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewNop()
)

// Default returns the process-wide logger. Until [SetDefault] is called it
// discards everything, so importing this package never produces output on
// its own.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault installs l as the process-wide logger.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// SyncDefault flushes the process-wide logger. Errors are ignored; there
// is nowhere left to report them.
func SyncDefault() {
	_ = Default().Sync()
}

// Fatal logs through the process-wide logger, flushes it, and exits the
// process with a non-zero status.
func Fatal(msg string, kv ...any) {
	Default().Error(msg, kv...)
	SyncDefault()
	os.Exit(1)
}
