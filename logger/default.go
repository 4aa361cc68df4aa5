package logger

import (
	"fmt"
	"sync"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler/consolehandler"
)

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

func init() {
	// Initialize default logger with console handler
	h := consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
		Async:      true,
		BufferSize: 1000,
	})

	defaultLogger = NewBuilder().
		WithHandler(h).
		WithLevel(core.InfoLevel).
		Build()
}

// Default returns the default logger
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Package-level convenience functions using the default logger. They call
// log directly so the captured call site stays the caller's.

func logDefault(level core.Level, msg, template string, args []interface{}, fields []core.Field) {
	l := Default()
	if !l.Enabled(level) {
		return
	}
	if template != "" {
		msg = fmt.Sprintf(template, args...)
	}
	// One more frame than the methods: logDefault itself
	l.log(level, 1, msg, template, args, fields)
}

// Trace logs a trace message using the default logger
func Trace(msg string, fields ...core.Field) {
	logDefault(core.TraceLevel, msg, "", nil, fields)
}

// Debug logs a debug message using the default logger
func Debug(msg string, fields ...core.Field) {
	logDefault(core.DebugLevel, msg, "", nil, fields)
}

// Info logs an info message using the default logger
func Info(msg string, fields ...core.Field) {
	logDefault(core.InfoLevel, msg, "", nil, fields)
}

// Warn logs a warning message using the default logger
func Warn(msg string, fields ...core.Field) {
	logDefault(core.WarnLevel, msg, "", nil, fields)
}

// Error logs an error message using the default logger
func Error(msg string, fields ...core.Field) {
	logDefault(core.ErrorLevel, msg, "", nil, fields)
}

// Fatal logs a fatal message using the default logger and exits the program
func Fatal(msg string, fields ...core.Field) {
	Default().Fatal(msg, fields...)
}

// Panic logs a panic message using the default logger and panics
func Panic(msg string, fields ...core.Field) {
	Default().Panic(msg, fields...)
}

// Tracef logs a formatted trace message using the default logger
func Tracef(format string, args ...interface{}) {
	logDefault(core.TraceLevel, "", format, args, nil)
}

// Debugf logs a formatted debug message using the default logger
func Debugf(format string, args ...interface{}) {
	logDefault(core.DebugLevel, "", format, args, nil)
}

// Infof logs a formatted info message using the default logger
func Infof(format string, args ...interface{}) {
	logDefault(core.InfoLevel, "", format, args, nil)
}

// Warnf logs a formatted warning message using the default logger
func Warnf(format string, args ...interface{}) {
	logDefault(core.WarnLevel, "", format, args, nil)
}

// Errorf logs a formatted error message using the default logger
func Errorf(format string, args ...interface{}) {
	logDefault(core.ErrorLevel, "", format, args, nil)
}

// Fatalf logs a formatted fatal message using the default logger and exits the program
func Fatalf(format string, args ...interface{}) {
	Default().Fatalf(format, args...)
}

// Panicf logs a formatted panic message using the default logger and panics
func Panicf(format string, args ...interface{}) {
	Default().Panicf(format, args...)
}

// With creates a new logger with additional fields
func With(fields ...core.Field) *Logger {
	return Default().With(fields...)
}
