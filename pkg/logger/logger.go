// Package logger provides the process-wide logging helpers used across the
// engine. Call sites use the package-level Infof/Warnf/Errorf/Debugf
// functions; the backend is a zap SugaredLogger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

// Init configures the global logger. Level is one of debug, info, warn,
// error; unknown values fall back to info.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	sugar = log.Sugar()
	return nil
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

// ensure lazily installs a default logger so early call sites never panic.
func ensure() *zap.SugaredLogger {
	if sugar == nil {
		_ = Init("info")
	}
	return sugar
}

func Debugf(format string, v ...interface{}) {
	ensure().Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	ensure().Infof(format, v...)
}

func Warnf(format string, v ...interface{}) {
	ensure().Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	ensure().Errorf(format, v...)
}
