package loupehandler

import (
	"go.uber.org/zap"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/layout"
	"github.com/philipp01105/nlog-loupe/loupe"
)

// Handler forwards log entries to a loupe.Writer. It is immutable after
// Build and safe for concurrent use.
type Handler struct {
	cfg     Config
	details layout.Layout
	capture core.CaptureMode
	writer  loupe.Writer
	log     *zap.Logger
}

func newHandler(cfg Config, w loupe.Writer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		cfg:     cfg,
		details: cfg.DetailsLayout(),
		capture: cfg.CaptureMode(),
		writer:  w,
		log:     log.Named("loupehandler"),
	}
	h.log.Debug("target created",
		zap.String("name", cfg.Name),
		zap.Bool("includeCallSite", cfg.IncludeCallSite),
		zap.Stringer("sourceMode", cfg.SourceMode),
		zap.Bool("details", h.details != nil),
	)
	return h
}

// Config returns the handler configuration
func (h *Handler) Config() Config {
	return h.cfg
}

// Handle translates the entry and writes it to the agent. A nil entry is
// ignored.
func (h *Handler) Handle(entry *core.Entry) error {
	if entry == nil {
		return nil
	}

	message := layout.Render(h.cfg.Layout, entry)
	if message == "" {
		message = entry.Message
	}

	category := layout.Render(h.cfg.Category, entry)
	if category == "" {
		category = entry.LoggerName
	}

	severity := MapSeverity(entry.Level)

	source := NoSource
	if h.cfg.IncludeCallSite {
		source = h.resolveSource(entry)
	}

	h.writer.Write(loupe.Message{
		Timestamp:   entry.Time,
		Severity:    severity,
		LogSystem:   loupe.LogSystem,
		Source:      source,
		Exception:   ExtractError(entry),
		Mode:        loupe.Queued,
		Details:     layout.Render(h.details, entry),
		Category:    category,
		Caption:     layout.Render(h.cfg.Caption, entry),
		Description: message,
	})
	return nil
}

func (h *Handler) resolveSource(entry *core.Entry) *Source {
	if h.cfg.SourceMode == SourceStackFrame {
		return ResolveFrame(entry.PC)
	}
	return ResolveCaller(entry)
}

// CaptureMode returns the call-site data the logger must capture
// (implements handler.CallSiteCapturer).
func (h *Handler) CaptureMode() core.CaptureMode {
	return h.capture
}

// CanRecycleEntry reports that the entry is not retained after Handle
func (h *Handler) CanRecycleEntry() bool {
	return true
}

// Close releases nothing; the agent session is ended by its owner.
func (h *Handler) Close() error {
	h.log.Debug("target closed", zap.String("name", h.cfg.Name))
	return nil
}
