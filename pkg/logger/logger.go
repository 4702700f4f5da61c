package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nikmy/roombook/pkg/environment"
	"github.com/nikmy/roombook/pkg/errors"
)

type Logger interface {
	With(label string) Logger

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Panicf(format string, args ...any)

	Debug(err error)
	Info(err error)
	Warn(err error)
	Error(err error)
	Panic(err error)
}

func New(env environment.Env) (Logger, error) {
	var logger *zap.Logger
	var err error

	switch env {
	case environment.Production:
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, errors.WrapFail(err, "init logger")
	}

	return FromZap(logger), nil
}

func FromZap(l *zap.Logger) Logger {
	return &wrapper{base: l.Sugar()}
}

type wrapper struct {
	base *zap.SugaredLogger
}

func (w *wrapper) With(label string) Logger {
	return &wrapper{w.base.Named(label)}
}

func (w *wrapper) Debug(err error) { w.logf(zap.DebugLevel, "%s", err) }
func (w *wrapper) Info(err error)  { w.logf(zap.InfoLevel, "%s", err) }
func (w *wrapper) Warn(err error)  { w.logf(zap.WarnLevel, "%s", err) }
func (w *wrapper) Error(err error) { w.logf(zap.ErrorLevel, "%s", err) }
func (w *wrapper) Panic(err error) { w.logf(zap.PanicLevel, "%s", err) }

func (w *wrapper) Debugf(format string, args ...any) { w.logf(zap.DebugLevel, format, args...) }
func (w *wrapper) Infof(format string, args ...any)  { w.logf(zap.InfoLevel, format, args...) }
func (w *wrapper) Warnf(format string, args ...any)  { w.logf(zap.WarnLevel, format, args...) }
func (w *wrapper) Errorf(format string, args ...any) { w.logf(zap.ErrorLevel, format, args...) }
func (w *wrapper) Panicf(format string, args ...any) { w.logf(zap.PanicLevel, format, args...) }

func (w *wrapper) logf(lvl zapcore.Level, format string, args ...any) {
	if !w.base.Desugar().Core().Enabled(lvl) {
		return
	}

	// Sync before panicking, deferred calls of Panicf never run
	if lvl == zap.PanicLevel {
		_ = w.base.Sync()
	}

	switch lvl {
	case zap.DebugLevel:
		w.base.Debugf(format, args...)
	case zap.InfoLevel:
		w.base.Infof(format, args...)
	case zap.WarnLevel:
		w.base.Warnf(format, args...)
	case zap.ErrorLevel:
		w.base.Errorf(format, args...)
	default:
		w.base.Panicf(format, args...)
	}
	_ = w.base.Sync()
}
