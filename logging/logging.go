/*
 *    Copyright 2018 INS Ecosystem
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package logging is the Logging collaborator named in spec §6: a
// best-effort sink that never blocks the caller.
package logging

import "go.uber.org/zap"

// Level mirrors the four levels spec §6 requires.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Logger is the interface the core consumes. Implementations must not block
// the caller; the zap-backed default satisfies this via zap's own buffered
// core.
type Logger interface {
	Log(level Level, msg string, fields ...interface{})
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZap adapts a *zap.Logger. A nil logger is replaced by zap.NewNop() so
// callers never need a nil-check before logging.
func NewZap(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.Sugar()}
}

// NewProduction builds the default production logger (JSON, info level).
func NewProduction() Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return NewZap(l)
}

// NewDevelopment builds a human-readable console logger.
func NewDevelopment() Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	return NewZap(l)
}

// NewNop returns a Logger that discards everything, for tests.
func NewNop() Logger {
	return NewZap(zap.NewNop())
}

func (z *zapLogger) Log(level Level, msg string, fields ...interface{}) {
	switch level {
	case Debug:
		z.sugar.Debugw(msg, fields...)
	case Info:
		z.sugar.Infow(msg, fields...)
	case Warn:
		z.sugar.Warnw(msg, fields...)
	case Error:
		z.sugar.Errorw(msg, fields...)
	}
}
