// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package xlog gives the core a structured, leveled logger with the same
// key-value calling convention as erigon-lib/log/v3, backed by zap. A nil
// *Logger is a valid, silent logger: the core never requires logging to be
// configured.
package xlog

import "go.uber.org/zap"

// Logger wraps a zap.SugaredLogger with the key-value call convention the
// rest of the erigon stack uses (log.Debug("msg", "k", v, ...)).
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a Logger around a production zap configuration. Callers that
// don't want logging should simply pass a nil *Logger around instead of
// calling New.
func New() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar()}, nil
}

// Nop returns a Logger that discards everything, useful for tests that want
// a non-nil logger to exercise the logging call sites without the
// production zap backend.
func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.s.Debugw(msg, kv...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.s.Infow(msg, kv...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.s.Warnw(msg, kv...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.s.Errorw(msg, kv...)
}

// Sync flushes any buffered log entries. Safe to call on a nil Logger.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.s.Sync()
}
