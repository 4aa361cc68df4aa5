package consolehandler

import (
	"github.com/philipp01105/nlog-loupe/core"
)

// SyncConsoleHandler renders and writes each entry in the caller's
// goroutine.
type SyncConsoleHandler struct {
	consoleBase
}

// newSyncConsoleHandler creates a new synchronous console handler.
func newSyncConsoleHandler(cfg ConsoleConfig) *SyncConsoleHandler {
	h := &SyncConsoleHandler{}
	h.init(cfg)
	return h
}

// Handle processes a log entry synchronously.
func (h *SyncConsoleHandler) Handle(entry *core.Entry) error {
	if entry == nil {
		return nil
	}
	return h.write(entry)
}

// CanRecycleEntry returns true because sync handler processes entries immediately.
func (h *SyncConsoleHandler) CanRecycleEntry() bool {
	return true
}

// Close closes the handler.
func (h *SyncConsoleHandler) Close() error {
	select {
	case <-h.closed:
		return nil // Already closed
	default:
		close(h.closed)
	}
	return nil
}
