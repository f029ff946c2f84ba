// Package logger keeps a zap logger in the context so request- and job-scoped
// fields follow a call through the service layers.
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environments understood by Setup. Anything else is treated as development.
const (
	DevelopmentEnvironment = "development"
	ProductionEnvironment  = "production"
)

// base is returned by Get when the context has no logger. It discards
// everything until Setup is called.
var base = zap.NewNop() //nolint: gochecknoglobals

func configFor(environment string) zap.Config {
	if environment == ProductionEnvironment {
		return zap.NewProductionConfig()
	}

	return zap.NewDevelopmentConfig()
}

// Setup replaces the base logger. Production logs JSON at info level,
// development logs console output at debug level. A non-empty level
// (debug, info, warn, error) overrides that default; an unparsable level is
// returned as an error after the logger has been installed with the default.
func Setup(environment, level string) error {
	cfg := configFor(environment)

	var levelErr error
	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		} else {
			levelErr = fmt.Errorf("could not parse log level %q: %w", level, err)
		}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("could not build logger: %w", err)
	}
	base = l

	return levelErr
}

type ctxKey struct{}

// Get returns the context's logger, or the base logger.
func Get(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}

	return base
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithFields returns a copy of ctx whose logger adds fields to every entry.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}

// IsDebug reports whether the context's logger emits debug entries.
func IsDebug(ctx context.Context) bool {
	return Get(ctx).Core().Enabled(zapcore.DebugLevel)
}

func Debug(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Debug(msg, fields...) }

func Info(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Info(msg, fields...) }

func Warn(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Warn(msg, fields...) }

func Error(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Error(msg, fields...) }

// Fatal logs and then exits the process.
func Fatal(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Fatal(msg, fields...) }
