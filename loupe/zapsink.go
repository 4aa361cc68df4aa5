package loupe

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapSink writes every message as an entry on a zap logger.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink creates a sink writing to l
func NewZapSink(l *zap.Logger) *ZapSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapSink{log: l}
}

// ZapLevel maps a severity to the zap level used by ZapSink.
func ZapLevel(s Severity) zapcore.Level {
	switch s {
	case Critical, Error:
		return zapcore.ErrorLevel
	case Warning:
		return zapcore.WarnLevel
	case Verbose:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// Send writes the batch. It never fails.
func (s *ZapSink) Send(_ context.Context, session SessionInfo, batch []Message) error {
	for i := range batch {
		msg := &batch[i]
		ce := s.log.Check(ZapLevel(msg.Severity), msg.Description)
		if ce == nil {
			continue
		}
		if !msg.Timestamp.IsZero() {
			ce.Time = msg.Timestamp
		}
		ce.Write(messageFields(session, msg)...)
	}
	return nil
}

// Close flushes the underlying logger
func (s *ZapSink) Close() error {
	// Sync on a console writer returns EINVAL on some platforms
	_ = s.log.Sync()
	return nil
}

func messageFields(session SessionInfo, msg *Message) []zap.Field {
	fields := make([]zap.Field, 0, 12)
	fields = append(fields,
		zap.String("session", session.ID),
		zap.Stringer("severity", msg.Severity),
	)
	if msg.LogSystem != "" {
		fields = append(fields, zap.String("logSystem", msg.LogSystem))
	}
	if msg.Category != "" {
		fields = append(fields, zap.String("category", msg.Category))
	}
	if msg.Caption != "" {
		fields = append(fields, zap.String("caption", msg.Caption))
	}
	if msg.User != "" {
		fields = append(fields, zap.String("user", msg.User))
	}
	if src := msg.Source; src != nil {
		if v := src.ClassName(); v != "" {
			fields = append(fields, zap.String("class", v))
		}
		if v := src.MethodName(); v != "" {
			fields = append(fields, zap.String("method", v))
		}
		if v := src.FileName(); v != "" {
			fields = append(fields, zap.String("file", v), zap.Int("line", src.LineNumber()))
		}
	}
	if msg.Details != "" {
		fields = append(fields, zap.String("details", msg.Details))
	}
	if msg.Exception != nil {
		fields = append(fields, zap.Error(msg.Exception))
	}
	return fields
}
