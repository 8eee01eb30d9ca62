/*
DESCRIPTION
  logging.go provides Logger, the leveled logging interface used
  throughout this module, backed by a zap.SugaredLogger writing through
  a rotating lumberjack file sink.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package logging provides the Logger interface used throughout this
// module, and a concrete implementation backed by zap and lumberjack,
// matching the shape of the logging.Logger interface this codebase's
// lineage depends on (see cmd/rv/main.go's logger construction).
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log levels, ordered least to most severe.
const (
	Debug int8 = iota
	Info
	Warning
	Error
	Fatal
)

// Logger is the leveled logging interface components of this module
// take as a dependency, rather than writing directly to a concrete
// logger. kv is an alternating key/value list appended to the message,
// matching this codebase's conventional call shape, e.g.
// log.Error("could not open file", "path", path, "error", err).
type Logger interface {
	SetLevel(level int8)
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warning(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	Fatal(msg string, kv ...interface{})
}

// zapLogger implements Logger with a zap.SugaredLogger. The level filter
// is held separately from zap's own level so SetLevel can be changed at
// runtime without reconstructing the logger core.
type zapLogger struct {
	sugar *zap.SugaredLogger
	level *zap.AtomicLevel
}

// New returns a Logger writing JSON-encoded entries to w at the given
// initial level. w is typically an io.MultiWriter combining a
// lumberjack.Logger (for rotation) with any other sink.
func New(level int8, w io.Writer) Logger {
	al := zap.NewAtomicLevel()
	al.SetLevel(toZapLevel(level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), al)
	logger := zap.New(core, zap.AddCaller())

	return &zapLogger{sugar: logger.Sugar(), level: &al}
}

// NewFile returns a Logger rotating through a lumberjack.Logger at path,
// matching the rotation parameters cmd/rv/main.go passes for its own log
// file.
func NewFile(level int8, path string, maxSizeMB, maxBackups, maxAgeDays int) Logger {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return New(level, lj)
}

func toZapLevel(l int8) zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warning:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	case Fatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) SetLevel(level int8) { l.level.SetLevel(toZapLevel(level)) }
func (l *zapLogger) Debug(msg string, kv ...interface{})   { l.sugar.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...interface{})    { l.sugar.Infow(msg, kv...) }
func (l *zapLogger) Warning(msg string, kv ...interface{}) { l.sugar.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...interface{})   { l.sugar.Errorw(msg, kv...) }
func (l *zapLogger) Fatal(msg string, kv ...interface{})   { l.sugar.Fatalw(msg, kv...) }
