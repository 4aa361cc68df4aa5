package handler

import (
	"time"

	"github.com/philipp01105/nlog-loupe/core"
)

// Handler defines the interface for log handlers (targets)
type Handler interface {
	// Handle processes a log entry
	Handle(entry *core.Entry) error

	// Close closes the handler and releases resources
	Close() error
}

// CallSiteCapturer is an optional interface for handlers that need
// call-site data. Loggers query it once at build time and only capture
// what is requested.
type CallSiteCapturer interface {
	CaptureMode() core.CaptureMode
}

// Recycler is an optional interface for handlers that are done with an
// entry when Handle returns, so the logger may return it to the pool.
type Recycler interface {
	CanRecycleEntry() bool
}

// StatsProvider is implemented by handlers that track statistics
type StatsProvider interface {
	Stats() Snapshot
}

// CaptureModeOf returns the capture mode requested by h, or CaptureNone.
func CaptureModeOf(h Handler) core.CaptureMode {
	if c, ok := h.(CallSiteCapturer); ok {
		return c.CaptureMode()
	}
	return core.CaptureNone
}

// CanRecycle reports whether h allows entries to be recycled after Handle.
func CanRecycle(h Handler) bool {
	if rc, ok := h.(Recycler); ok {
		return rc.CanRecycleEntry()
	}
	return false
}

// NewStoppedTimer returns a timer that is stopped and drained, ready for
// Reset on the blocking overflow path.
func NewStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}
