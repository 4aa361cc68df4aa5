package filehandler

import (
	"os"

	"github.com/philipp01105/nlog-loupe/core"
)

// SyncFileHandler renders and writes each entry in the caller's goroutine
// through a buffered writer. Buffered lines reach the file on rotation and
// Close.
type SyncFileHandler struct {
	fileBase
}

// newSyncFileHandler creates a new synchronous file handler.
func newSyncFileHandler(cfg FileConfig, file *os.File, fileSize int64) *SyncFileHandler {
	h := &SyncFileHandler{}
	initFileBase(&h.fileBase, cfg, file, fileSize)
	return h
}

// Handle processes a log entry synchronously.
func (h *SyncFileHandler) Handle(entry *core.Entry) error {
	if entry == nil {
		return nil
	}
	return h.write(entry)
}

// CanRecycleEntry returns true because sync handler processes entries immediately.
func (h *SyncFileHandler) CanRecycleEntry() bool {
	return true
}

// Close closes the handler and the underlying file.
func (h *SyncFileHandler) Close() error {
	select {
	case <-h.closed:
		return nil // Already closed
	default:
		close(h.closed)
	}
	return h.closeFile()
}
