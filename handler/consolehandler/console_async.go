package consolehandler

import (
	"bytes"
	"sync"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
)

// AsyncConsoleHandler renders entries in the caller's goroutine and hands
// the rendered lines to a background writer through a bounded queue.
// Because only bytes are queued, entries can be recycled as soon as Handle
// returns.
type AsyncConsoleHandler struct {
	consoleBase
	queue          chan []byte
	wg             sync.WaitGroup
	closeOnce      sync.Once
	overflowPolicy map[core.Level]handler.OverflowPolicy
	blockTimeout   time.Duration
	drainTimeout   time.Duration
}

// newAsyncConsoleHandler creates a new asynchronous console handler.
func newAsyncConsoleHandler(cfg ConsoleConfig) *AsyncConsoleHandler {
	h := &AsyncConsoleHandler{
		overflowPolicy: cfg.OverflowPolicy,
		blockTimeout:   cfg.BlockTimeout,
		drainTimeout:   cfg.DrainTimeout,
	}
	h.init(cfg)

	h.queue = make(chan []byte, cfg.BufferSize)
	h.wg.Add(1)
	go h.process()

	return h
}

// Handle renders the entry and sends the line to the async queue with
// overflow policy handling.
func (h *AsyncConsoleHandler) Handle(entry *core.Entry) error {
	if entry == nil {
		return nil
	}
	select {
	case <-h.closed:
		// Handler is closing, write synchronously
		return h.write(entry)
	default:
	}

	var buf bytes.Buffer
	h.render(entry, &buf)
	line := buf.Bytes()

	// Get overflow policy for this level
	policy, ok := h.overflowPolicy[entry.Level]
	if !ok {
		policy = handler.DropNewest // Default if not specified
	}

	switch policy {
	case handler.Block:
		select {
		case h.queue <- line:
			return nil
		default:
		}
		// Queue full, wait up to blockTimeout
		timer := time.NewTimer(h.blockTimeout)
		defer timer.Stop()
		select {
		case h.queue <- line:
			return nil
		case <-timer.C:
			// Timeout - fall back to synchronous write
			h.stats.IncrementBlocked()
			return h.writeLine(line)
		case <-h.closed:
			return h.writeLine(line)
		}

	case handler.DropOldest:
		select {
		case h.queue <- line:
			return nil
		default:
			// Queue full - try to drop oldest
			select {
			case <-h.queue:
				h.stats.IncrementDropped(entry.Level)
			default:
			}
			select {
			case h.queue <- line:
			default:
				// Still full, drop this one
				h.stats.IncrementDropped(entry.Level)
			}
			return nil
		}

	default:
		select {
		case h.queue <- line:
		default:
			// Queue full - drop this entry
			h.stats.IncrementDropped(entry.Level)
		}
		return nil
	}
}

// CanRecycleEntry returns true because only the rendered line outlives Handle.
func (h *AsyncConsoleHandler) CanRecycleEntry() bool {
	return true
}

// process writes queued lines until the handler is closed, then drains
// what is left within drainTimeout.
func (h *AsyncConsoleHandler) process() {
	defer h.wg.Done()

	for {
		select {
		case line := <-h.queue:
			_ = h.writeLine(line)
		case <-h.closed:
			deadline := time.After(h.drainTimeout)
			for {
				select {
				case line := <-h.queue:
					_ = h.writeLine(line)
				case <-deadline:
					return
				default:
					return
				}
			}
		}
	}
}

// Close closes the handler, draining the queue with a timeout.
func (h *AsyncConsoleHandler) Close() error {
	h.closeOnce.Do(func() {
		close(h.closed)
		h.wg.Wait()
	})
	return nil
}
