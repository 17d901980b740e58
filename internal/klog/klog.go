// Package klog is the ambient structured-logging sink shared by the
// connection manager and the event dispatchers. Spec §6/§7 require a
// process-global sink for invoke-time exceptions and connection errors but
// treat the logger subsystem itself as an external collaborator
// (spec §1 Non-goals list "structured logger" among the pieces the core
// only talks to through a small surface); this package is that surface, not
// a reimplementation of the excluded subsystem.
//
// Grounded on theRebelliousNerd-codenerd's go.uber.org/zap wiring — the
// teacher itself carries no logger of its own.
package klog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	logger = l.Sugar()
}

// Set replaces the process-global logger. Passing nil restores a no-op
// logger; tests typically call this with zap.NewNop().Sugar() to keep
// output quiet.
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	logger = l
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Errorw logs a structured error-level message.
func Errorw(msg string, keysAndValues ...any) { current().Errorw(msg, keysAndValues...) }

// Warnw logs a structured warn-level message.
func Warnw(msg string, keysAndValues ...any) { current().Warnw(msg, keysAndValues...) }

// Infow logs a structured info-level message.
func Infow(msg string, keysAndValues ...any) { current().Infow(msg, keysAndValues...) }

// Debugw logs a structured debug-level message.
func Debugw(msg string, keysAndValues ...any) { current().Debugw(msg, keysAndValues...) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error { return current().Sync() }
