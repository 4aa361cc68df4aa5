package handler

import (
	"go.uber.org/multierr"

	"github.com/philipp01105/nlog-loupe/core"
)

// MultiHandler sends log entries to multiple handlers
type MultiHandler struct {
	handlers     []Handler
	capture      core.CaptureMode // union of the children's capture modes
	recycleEntry bool             // true when every child supports entry recycling
}

// NewMultiHandler creates a new multi-handler. Nil handlers are skipped.
func NewMultiHandler(handlers ...Handler) *MultiHandler {
	m := &MultiHandler{recycleEntry: true}
	for _, h := range handlers {
		if h == nil {
			continue
		}
		m.handlers = append(m.handlers, h)
		m.capture |= CaptureModeOf(h)
		if !CanRecycle(h) {
			m.recycleEntry = false
		}
	}
	return m
}

// Handle processes a log entry by sending it to all handlers. Every child
// sees the entry even when an earlier one fails.
func (h *MultiHandler) Handle(entry *core.Entry) error {
	var err error
	for _, handler := range h.handlers {
		err = multierr.Append(err, handler.Handle(entry))
	}
	return err
}

// CaptureMode returns the call-site data needed by any child handler.
func (h *MultiHandler) CaptureMode() core.CaptureMode {
	return h.capture
}

// CanRecycleEntry returns true if the caller can recycle the entry after Handle returns.
// This is safe when all child handlers process entries synchronously.
func (h *MultiHandler) CanRecycleEntry() bool {
	return h.recycleEntry
}

// Len returns the number of child handlers
func (h *MultiHandler) Len() int {
	return len(h.handlers)
}

// Close closes all handlers
func (h *MultiHandler) Close() error {
	var err error
	for _, handler := range h.handlers {
		err = multierr.Append(err, handler.Close())
	}
	return err
}
