// Package sloghandler adapts nlog handlers to log/slog, so code written
// against slog can log through any nlog target, including the Loupe target.
package sloghandler

import (
	"context"
	"log/slog"
	"math"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
)

// Options configures a Handler
type Options struct {
	// Level is the minimum level passed to the wrapped handler
	Level core.Level
	// LoggerName is set on every entry
	LoggerName string
}

// Handler implements slog.Handler on top of an nlog handler.
type Handler struct {
	handler handler.Handler
	opts    Options
	capture core.CaptureMode
	recycle bool
	attrs   []core.Field
	group   string
}

var _ slog.Handler = (*Handler)(nil)

// New creates a slog.Handler writing to h
func New(h handler.Handler, opts Options) *Handler {
	return &Handler{
		handler: h,
		opts:    opts,
		capture: handler.CaptureModeOf(h),
		recycle: handler.CanRecycle(h),
	}
}

// Enabled reports whether the handler handles records at the given level.
func (s *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return LevelFromSlog(level) >= s.opts.Level
}

// Handle converts the record to an entry and passes it to the wrapped handler.
// The call site is taken from record.PC when the wrapped handler asks for it.
func (s *Handler) Handle(ctx context.Context, record slog.Record) error {
	entry := core.GetEntry()
	entry.Time = record.Time
	entry.Level = LevelFromSlog(record.Level)
	entry.LoggerName = s.opts.LoggerName
	entry.Message = record.Message
	entry.Scope = core.ScopeFields(ctx)

	if s.capture.Has(core.CaptureFrame) {
		entry.PC = record.PC
	}
	if s.capture.Has(core.CaptureCaller) {
		entry.Caller = core.CallerFromPC(record.PC)
	}

	if len(s.attrs) > 0 {
		entry.Fields = append(entry.Fields, s.attrs...)
	}
	record.Attrs(func(a slog.Attr) bool {
		entry.Fields = appendAttr(entry.Fields, s.group, a)
		return true
	})

	// The first error attribute becomes the entry's error
	for _, f := range entry.Fields {
		if err := f.Error(); err != nil {
			entry.Err = err
			break
		}
	}

	err := s.handler.Handle(entry)
	if s.recycle {
		core.PutEntry(entry)
	}
	return err
}

// WithAttrs returns a new Handler with additional attributes.
func (s *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	s2 := *s
	s2.attrs = make([]core.Field, len(s.attrs), len(s.attrs)+len(attrs))
	copy(s2.attrs, s.attrs)
	for _, a := range attrs {
		s2.attrs = appendAttr(s2.attrs, s.group, a)
	}
	return &s2
}

// WithGroup returns a new Handler that prefixes later attribute keys with name.
func (s *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	s2 := *s
	if s.group != "" {
		s2.group = s.group + "." + name
	} else {
		s2.group = name
	}
	return &s2
}

// LevelFromSlog converts a slog.Level to a core.Level. Levels below
// slog.LevelDebug map to Trace and levels above slog.LevelError map to Fatal.
func LevelFromSlog(level slog.Level) core.Level {
	switch {
	case level > slog.LevelError:
		return core.FatalLevel
	case level >= slog.LevelError:
		return core.ErrorLevel
	case level >= slog.LevelWarn:
		return core.WarnLevel
	case level >= slog.LevelInfo:
		return core.InfoLevel
	case level >= slog.LevelDebug:
		return core.DebugLevel
	default:
		return core.TraceLevel
	}
}

// appendAttr converts a slog.Attr to fields, prefixing the group name.
// Group values are flattened into dotted keys.
func appendAttr(fields []core.Field, group string, a slog.Attr) []core.Field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	key := a.Key
	if group != "" && key != "" {
		key = group + "." + key
	} else if key == "" {
		key = group
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return append(fields, core.Field{Key: key, Type: core.StringType, Str: a.Value.String()})
	case slog.KindInt64:
		return append(fields, core.Field{Key: key, Type: core.Int64Type, Int64: a.Value.Int64()})
	case slog.KindUint64:
		v := a.Value.Uint64()
		if v > math.MaxInt64 {
			return append(fields, core.Field{Key: key, Type: core.AnyType, Any: v})
		}
		return append(fields, core.Field{Key: key, Type: core.Int64Type, Int64: int64(v)})
	case slog.KindFloat64:
		return append(fields, core.Field{Key: key, Type: core.Float64Type, Float64: a.Value.Float64()})
	case slog.KindBool:
		val := int64(0)
		if a.Value.Bool() {
			val = 1
		}
		return append(fields, core.Field{Key: key, Type: core.BoolType, Int64: val})
	case slog.KindTime:
		return append(fields, core.Field{Key: key, Type: core.TimeType, Int64: a.Value.Time().UnixNano()})
	case slog.KindDuration:
		return append(fields, core.Field{Key: key, Type: core.DurationType, Int64: int64(a.Value.Duration())})
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			fields = appendAttr(fields, key, ga)
		}
		return fields
	default:
		if err, ok := a.Value.Any().(error); ok {
			return append(fields, core.Field{Key: key, Type: core.ErrorType, Str: err.Error(), Any: err})
		}
		return append(fields, core.Field{Key: key, Type: core.AnyType, Any: a.Value.Any()})
	}
}
