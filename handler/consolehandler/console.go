package consolehandler

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
	"github.com/philipp01105/nlog-loupe/layout"
)

// DefaultLayout is the layout used when ConsoleConfig.Layout is nil.
var DefaultLayout = layout.MustParse("${time} [${level}] ${message}${fields}")

// isConcurrentSafeWriter returns true if the writer is known to be safe for
// concurrent Write calls, allowing the handler to skip write-level locking.
func isConcurrentSafeWriter(w io.Writer) bool {
	if w == io.Discard {
		return true
	}
	_, ok := w.(*os.File)
	return ok
}

// linePool holds buffers for rendering single lines
var linePool = sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

// consoleBase contains shared fields and methods for console handlers.
type consoleBase struct {
	writer         io.Writer
	layout         layout.Layout
	appender       layout.Appender
	concurrentSafe bool // true if writer is safe for concurrent Write calls
	stats          *handler.Stats
	mu             sync.Mutex // serializes writes to non concurrent-safe writers
	closed         chan struct{}
}

func (b *consoleBase) init(cfg ConsoleConfig) {
	b.writer = cfg.Writer
	b.layout = cfg.Layout
	b.appender, _ = cfg.Layout.(layout.Appender)
	b.concurrentSafe = cfg.ConcurrentWriter || isConcurrentSafeWriter(cfg.Writer)
	b.stats = handler.NewStats()
	b.closed = make(chan struct{})
}

// render renders one newline-terminated line for entry into buf.
func (b *consoleBase) render(entry *core.Entry, buf *bytes.Buffer) {
	if b.appender != nil {
		b.appender.AppendTo(buf, entry)
	} else {
		buf.WriteString(b.layout.Render(entry))
	}
	buf.WriteByte('\n')
}

// writeLine writes a rendered line, locking only for writers that are not
// safe for concurrent use.
func (b *consoleBase) writeLine(line []byte) error {
	var err error
	if b.concurrentSafe {
		_, err = b.writer.Write(line)
	} else {
		b.mu.Lock()
		_, err = b.writer.Write(line)
		b.mu.Unlock()
	}
	if err == nil {
		b.stats.IncrementProcessed()
	}
	return err
}

// write renders and writes an entry in the caller's goroutine.
func (b *consoleBase) write(entry *core.Entry) error {
	buf := linePool.Get().(*bytes.Buffer)
	buf.Reset()
	b.render(entry, buf)
	err := b.writeLine(buf.Bytes())
	if buf.Cap() <= 64*1024 {
		linePool.Put(buf)
	}
	return err
}

// Stats returns a snapshot of the current statistics
func (b *consoleBase) Stats() handler.Snapshot {
	return b.stats.GetSnapshot()
}

// CaptureMode requests caller data when the layout renders call sites.
func (b *consoleBase) CaptureMode() core.CaptureMode {
	if layout.UsesCallsite(b.layout) {
		return core.CaptureCaller
	}
	return core.CaptureNone
}

// ConsoleConfig holds configuration for console handler
type ConsoleConfig struct {
	// Writer to write to (default: os.Stdout)
	Writer io.Writer
	// Layout renders each line (default: DefaultLayout)
	Layout layout.Layout
	// Async enables asynchronous logging
	Async bool
	// BufferSize is the size of the async queue (default: 1000)
	BufferSize int
	// OverflowPolicy defines per-level overflow behavior (default: uses DefaultLevelPolicy)
	OverflowPolicy map[core.Level]handler.OverflowPolicy
	// BlockTimeout is the timeout for blocking overflow policy (default: 100ms)
	BlockTimeout time.Duration
	// DrainTimeout is the timeout for draining queue on Close (default: 5s)
	DrainTimeout time.Duration
	// ConcurrentWriter indicates the Writer supports concurrent Write calls.
	// Automatically detected for io.Discard and *os.File.
	ConcurrentWriter bool
}

// applyConsoleDefaults fills in zero-value fields with defaults.
func applyConsoleDefaults(cfg *ConsoleConfig) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Layout == nil {
		cfg.Layout = DefaultLayout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.OverflowPolicy == nil {
		cfg.OverflowPolicy = handler.DefaultLevelPolicy()
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 100 * time.Millisecond
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
}

// NewConsoleHandler creates a new console handler.
// Returns a SyncConsoleHandler when Async is false, or an AsyncConsoleHandler
// when Async is true. Both implement Handler, CallSiteCapturer and StatsProvider.
func NewConsoleHandler(cfg ConsoleConfig) handler.Handler {
	applyConsoleDefaults(&cfg)
	if cfg.Async {
		return newAsyncConsoleHandler(cfg)
	}
	return newSyncConsoleHandler(cfg)
}
