package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
)

// osExit is a variable to allow overriding os.Exit in tests
var osExit = os.Exit

// defaultCallerSkip skips GetCaller, log, and the level method
const defaultCallerSkip = 3

// Logger is the main logging interface (immutable)
type Logger struct {
	name         string
	handler      handler.Handler
	level        core.Level
	fields       []core.Field
	scope        []core.Field
	capture      core.CaptureMode
	callerSkip   int
	recycleEntry bool
	coarseClock  bool
}

// Builder provides a fluent API for building Logger instances
type Builder struct {
	name         string
	handler      handler.Handler
	level        core.Level
	fields       []core.Field
	capture      core.CaptureMode
	forceCaller  bool
	callerSkip   int
	recycleEntry bool
	coarseClock  bool
}

// NewBuilder creates a new logger builder
func NewBuilder() *Builder {
	return &Builder{
		level:      core.InfoLevel, // Default level
		callerSkip: defaultCallerSkip,
	}
}

// WithName sets the logger name
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithHandler sets the handler. The handler's call-site and recycling
// requirements are read once here.
func (b *Builder) WithHandler(h handler.Handler) *Builder {
	b.handler = h
	b.capture = handler.CaptureModeOf(h)
	b.recycleEntry = handler.CanRecycle(h)
	return b
}

// WithLevel sets the log level
func (b *Builder) WithLevel(level core.Level) *Builder {
	b.level = level
	return b
}

// WithFields adds default fields to all log entries
func (b *Builder) WithFields(fields ...core.Field) *Builder {
	b.fields = append(b.fields, fields...)
	return b
}

// WithCaller always captures caller information, even when the handler
// does not ask for it
func (b *Builder) WithCaller(enabled bool) *Builder {
	b.forceCaller = enabled
	return b
}

// WithCallerSkip adds extra frames to skip when capturing the call site,
// for loggers wrapped by helper functions
func (b *Builder) WithCallerSkip(skip int) *Builder {
	b.callerSkip = defaultCallerSkip + skip
	return b
}

// WithCoarseClock stamps entries from the shared coarse clock instead of
// calling time.Now for every entry
func (b *Builder) WithCoarseClock(enabled bool) *Builder {
	b.coarseClock = enabled
	return b
}

// clone returns a copy of the builder that does not share its field slice
func (b *Builder) clone() *Builder {
	b2 := *b
	b2.fields = append([]core.Field(nil), b.fields...)
	return &b2
}

// Build creates the Logger instance
func (b *Builder) Build() *Logger {
	capture := b.capture
	if b.forceCaller {
		capture |= core.CaptureCaller
	}
	if b.coarseClock {
		core.StartCoarseClock()
	}
	return &Logger{
		name:         b.name,
		handler:      b.handler,
		level:        b.level,
		fields:       append([]core.Field(nil), b.fields...),
		capture:      capture,
		callerSkip:   b.callerSkip,
		recycleEntry: b.recycleEntry,
		coarseClock:  b.coarseClock,
	}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Level returns the minimum level of the logger
func (l *Logger) Level() core.Level {
	return l.level
}

// Enabled reports whether messages at level are logged
func (l *Logger) Enabled(level core.Level) bool {
	return level >= l.level && level < core.OffLevel
}

// With creates a new Logger with additional fields (immutable operation)
func (l *Logger) With(fields ...core.Field) *Logger {
	newFields := make([]core.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	l2 := *l
	l2.fields = newFields
	return &l2
}

// Named creates a new Logger with the given name
func (l *Logger) Named(name string) *Logger {
	l2 := *l
	l2.name = name
	return &l2
}

// Ctx creates a new Logger carrying the scope properties of ctx
func (l *Logger) Ctx(ctx context.Context) *Logger {
	l2 := *l
	l2.scope = core.ScopeFields(ctx)
	return &l2
}

// Log logs a message at the specified level
func (l *Logger) Log(level core.Level, msg string, fields ...core.Field) {
	// Level check optimization - exit early BEFORE any allocations
	if !l.Enabled(level) {
		return
	}
	l.log(level, 0, msg, "", nil, fields)
}

// Logf logs a formatted message at the specified level
func (l *Logger) Logf(level core.Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.log(level, 0, fmt.Sprintf(format, args...), format, args, nil)
}

// log is the internal logging method. depth counts extra frames between
// the caller and the level method.
func (l *Logger) log(level core.Level, depth int, msg, template string, args []interface{}, fields []core.Field) {
	// Handler check - exit if no handler (avoid any work)
	if l.handler == nil {
		return
	}

	// Get entry from pool AFTER level check
	entry := core.GetEntry()
	if l.coarseClock {
		entry.Time = core.CoarseNow()
	} else {
		entry.Time = time.Now()
	}
	entry.Level = level
	entry.LoggerName = l.name
	entry.Message = msg
	entry.Template = template
	entry.Args = args
	entry.Scope = l.scope

	// Add logger's default fields
	if len(l.fields) > 0 {
		entry.Fields = append(entry.Fields, l.fields...)
	}

	// Add provided fields
	if len(fields) > 0 {
		entry.Fields = append(entry.Fields, fields...)
	}

	// The last error field wins, so call-site errors beat logger defaults
	for i := len(entry.Fields) - 1; i >= 0; i-- {
		if err := entry.Fields[i].Error(); err != nil {
			entry.Err = err
			break
		}
	}

	if l.capture.Has(core.CaptureCaller) {
		entry.Caller = core.GetCaller(l.callerSkip + depth)
	}
	if l.capture.Has(core.CaptureFrame) {
		entry.PC = core.GetCallerPC(l.callerSkip + depth)
	}

	err := l.handler.Handle(entry)
	if err != nil {
		return
	}

	// Return entry to pool if handler supports it
	if l.recycleEntry {
		core.PutEntry(entry)
	}
}

// Trace logs a trace message
func (l *Logger) Trace(msg string, fields ...core.Field) {
	if core.TraceLevel < l.level {
		return
	}
	l.log(core.TraceLevel, 0, msg, "", nil, fields)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...core.Field) {
	if core.DebugLevel < l.level {
		return
	}
	l.log(core.DebugLevel, 0, msg, "", nil, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...core.Field) {
	if core.InfoLevel < l.level {
		return
	}
	l.log(core.InfoLevel, 0, msg, "", nil, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...core.Field) {
	if core.WarnLevel < l.level {
		return
	}
	l.log(core.WarnLevel, 0, msg, "", nil, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...core.Field) {
	if core.ErrorLevel < l.level {
		return
	}
	l.log(core.ErrorLevel, 0, msg, "", nil, fields)
}

// Fatal logs a fatal message and exits the program with os.Exit(1)
func (l *Logger) Fatal(msg string, fields ...core.Field) {
	l.log(core.FatalLevel, 0, msg, "", nil, fields)
	osExit(1)
}

// Panic logs a panic message and panics
func (l *Logger) Panic(msg string, fields ...core.Field) {
	l.log(core.PanicLevel, 0, msg, "", nil, fields)
	panic(msg)
}

// Tracef logs a trace message with formatting. The format string and
// arguments are kept on the entry, so an error argument can be picked up
// by handlers.
func (l *Logger) Tracef(format string, args ...interface{}) {
	if core.TraceLevel < l.level {
		return
	}
	l.log(core.TraceLevel, 0, fmt.Sprintf(format, args...), format, args, nil)
}

// Debugf logs a debug message with formatting
func (l *Logger) Debugf(format string, args ...interface{}) {
	if core.DebugLevel < l.level {
		return
	}
	l.log(core.DebugLevel, 0, fmt.Sprintf(format, args...), format, args, nil)
}

// Infof logs an info message with formatting
func (l *Logger) Infof(format string, args ...interface{}) {
	if core.InfoLevel < l.level {
		return
	}
	l.log(core.InfoLevel, 0, fmt.Sprintf(format, args...), format, args, nil)
}

// Warnf logs a warning message with formatting
func (l *Logger) Warnf(format string, args ...interface{}) {
	if core.WarnLevel < l.level {
		return
	}
	l.log(core.WarnLevel, 0, fmt.Sprintf(format, args...), format, args, nil)
}

// Errorf logs an error message with formatting
func (l *Logger) Errorf(format string, args ...interface{}) {
	if core.ErrorLevel < l.level {
		return
	}
	l.log(core.ErrorLevel, 0, fmt.Sprintf(format, args...), format, args, nil)
}

// Fatalf logs a fatal message with formatting and exits the program with os.Exit(1)
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(core.FatalLevel, 0, fmt.Sprintf(format, args...), format, args, nil)
	osExit(1)
}

// Panicf logs a panic message with formatting and panics
func (l *Logger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.log(core.PanicLevel, 0, msg, format, args, nil)
	panic(msg)
}

// Close closes the logger's handler
func (l *Logger) Close() error {
	if l.handler != nil {
		return l.handler.Close()
	}
	return nil
}
