package filehandler

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
)

// AsyncFileHandler renders entries in the caller's goroutine and hands the
// lines to a dedicated writer goroutine through a bounded queue.
type AsyncFileHandler struct {
	fileBase
	queue          chan []byte
	wg             sync.WaitGroup
	closeOnce      sync.Once
	overflowPolicy map[core.Level]handler.OverflowPolicy
	blockTimeout   time.Duration
	drainTimeout   time.Duration
	blockMu        sync.Mutex // serializes use of blockTimer
	blockTimer     *time.Timer
}

// newAsyncFileHandler creates a new asynchronous file handler.
func newAsyncFileHandler(cfg FileConfig, file *os.File, fileSize int64) *AsyncFileHandler {
	h := &AsyncFileHandler{
		overflowPolicy: cfg.OverflowPolicy,
		blockTimeout:   cfg.BlockTimeout,
		drainTimeout:   cfg.DrainTimeout,
		blockTimer:     handler.NewStoppedTimer(),
	}
	initFileBase(&h.fileBase, cfg, file, fileSize)

	h.queue = make(chan []byte, cfg.BufferSize)
	h.wg.Add(1)
	go h.process()

	return h
}

// Handle renders the entry and sends the line to the async queue with
// overflow policy handling.
func (h *AsyncFileHandler) Handle(entry *core.Entry) error {
	if entry == nil {
		return nil
	}
	select {
	case <-h.closed:
		return h.write(entry)
	default:
	}

	var buf bytes.Buffer
	h.render(entry, &buf)
	line := buf.Bytes()

	policy, ok := h.overflowPolicy[entry.Level]
	if !ok {
		policy = handler.DropNewest
	}

	switch policy {
	case handler.Block:
		select {
		case h.queue <- line:
			return nil
		default:
		}
		return h.blockingSend(line)

	case handler.DropOldest:
		select {
		case h.queue <- line:
			return nil
		default:
			select {
			case <-h.queue:
				h.stats.IncrementDropped(entry.Level)
			default:
			}
			select {
			case h.queue <- line:
			default:
				h.stats.IncrementDropped(entry.Level)
			}
			return nil
		}

	default:
		select {
		case h.queue <- line:
		default:
			h.stats.IncrementDropped(entry.Level)
		}
		return nil
	}
}

// blockingSend waits up to blockTimeout for queue space, then writes the
// line itself.
func (h *AsyncFileHandler) blockingSend(line []byte) error {
	h.blockMu.Lock()
	h.blockTimer.Reset(h.blockTimeout)
	var sent, timedOut bool
	select {
	case h.queue <- line:
		sent = true
	case <-h.blockTimer.C:
		timedOut = true
	case <-h.closed:
	}
	if !timedOut && !h.blockTimer.Stop() {
		<-h.blockTimer.C
	}
	h.blockMu.Unlock()

	if sent {
		return nil
	}
	if timedOut {
		h.stats.IncrementBlocked()
	}
	return h.writeLine(line)
}

// CanRecycleEntry returns true because only the rendered line outlives Handle.
func (h *AsyncFileHandler) CanRecycleEntry() bool {
	return true
}

// process writes queued lines until the handler is closed, then drains
// what is left within drainTimeout.
func (h *AsyncFileHandler) process() {
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

// Close drains the queue with a timeout and closes the file.
func (h *AsyncFileHandler) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closed)
		h.wg.Wait()
		err = h.closeFile()
	})
	return err
}
