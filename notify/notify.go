// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package notify is the user-facing notification sink. The controller
// routes every operator-visible message (start failures, submit
// failures, terminal outcomes) through a Notifier instead of printing
// directly, so front ends decide presentation.
package notify

import "log/slog"

// Level grades a notification.
type Level string

const (
	// Info is a routine status message.
	Info Level = "info"
	// Success reports a completed run.
	Success Level = "success"
	// Warning reports a degraded but recoverable condition, such as
	// the push channel dropping.
	Warning Level = "warning"
	// Error reports an operation the user must react to.
	Error Level = "error"
)

// Notifier receives user-facing messages. Implementations must not
// block: the controller calls Notify from its sync goroutine.
type Notifier interface {
	Notify(level Level, message string)
}

// Logger is a Notifier that writes to a slog.Logger. The default sink
// for headless use.
type Logger struct {
	logger *slog.Logger
}

// NewLogger returns a slog-backed notifier. logger may be nil, in
// which case slog.Default() is used.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// Notify implements Notifier.
func (l *Logger) Notify(level Level, message string) {
	switch level {
	case Warning:
		l.logger.Warn(message)
	case Error:
		l.logger.Error(message)
	default:
		l.logger.Info(message)
	}
}

// Func adapts a function to the Notifier interface.
type Func func(level Level, message string)

// Notify implements Notifier.
func (f Func) Notify(level Level, message string) { f(level, message) }
