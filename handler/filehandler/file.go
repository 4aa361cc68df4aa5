package filehandler

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
	"github.com/philipp01105/nlog-loupe/layout"
)

// DefaultLayout is the layout used when FileConfig.Layout is nil.
var DefaultLayout = layout.MustParse("${time} [${level}] ${logger}: ${message}${fields}${exception}")

const backupTimeFormat = "2006-01-02T15-04-05.000"

// fileBase contains shared fields and methods for file handlers.
type fileBase struct {
	filename       string
	file           *os.File
	bufWriter      *bufio.Writer
	layout         layout.Layout
	appender       layout.Appender
	mu             sync.Mutex // guards file, bufWriter, syncBuf and rotation state
	syncBuf        bytes.Buffer
	maxSize        int64
	maxBackups     int
	rotateInterval time.Duration
	currentSize    int64
	lastRotateTime time.Time
	hasRotation    bool
	stats          *handler.Stats
	closed         chan struct{}
}

// render renders one newline-terminated line for entry into buf.
func (b *fileBase) render(entry *core.Entry, buf *bytes.Buffer) {
	if b.appender != nil {
		b.appender.AppendTo(buf, entry)
	} else {
		buf.WriteString(b.layout.Render(entry))
	}
	buf.WriteByte('\n')
}

// write renders entry into the handler-owned buffer and writes it.
func (b *fileBase) write(entry *core.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncBuf.Reset()
	b.render(entry, &b.syncBuf)
	return b.writeLocked(b.syncBuf.Bytes())
}

// writeLine writes an already rendered line.
func (b *fileBase) writeLine(line []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(line)
}

func (b *fileBase) writeLocked(line []byte) error {
	if b.file == nil {
		return os.ErrClosed
	}
	if err := b.rotateIfNeeded(); err != nil {
		return err
	}
	n, err := b.bufWriter.Write(line)
	b.currentSize += int64(n)
	if err == nil {
		b.stats.IncrementProcessed()
	}
	return err
}

// rotateIfNeeded checks the size and interval limits and rotates when one
// is reached.
func (b *fileBase) rotateIfNeeded() error {
	if !b.hasRotation {
		return nil
	}
	needRotate := b.maxSize > 0 && b.currentSize >= b.maxSize
	if b.rotateInterval > 0 && time.Since(b.lastRotateTime) >= b.rotateInterval {
		needRotate = true
	}
	if !needRotate {
		return nil
	}
	return b.rotate()
}

// backupName returns an unused name for the next backup of filename.
func backupName(filename string, now time.Time) string {
	name := fmt.Sprintf("%s.%s", filename, now.Format(backupTimeFormat))
	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%04d", name, i)
	}
}

// rotate renames the current file to a timestamped backup and reopens
// filename.
func (b *fileBase) rotate() error {
	if err := b.bufWriter.Flush(); err != nil {
		return err
	}
	if err := b.file.Sync(); err != nil {
		return err
	}
	if err := b.file.Close(); err != nil {
		return err
	}

	renameErr := os.Rename(b.filename, backupName(b.filename, time.Now()))

	file, err := openFile(b.filename)
	if err != nil {
		if renameErr != nil {
			return fmt.Errorf("rotation failed: %v, reopen failed: %w", renameErr, err)
		}
		return err
	}
	b.file = file
	b.bufWriter.Reset(file)
	b.lastRotateTime = time.Now()
	if renameErr != nil {
		// still appending to the old file
		return renameErr
	}
	b.currentSize = 0

	if b.maxBackups > 0 {
		b.cleanupOldBackups()
	}
	return nil
}

// backups lists the backups of filename, oldest first.
func backups(filename string) []string {
	matches, err := filepath.Glob(filename + ".*")
	if err != nil {
		return nil
	}
	base := filepath.Base(filename) + "."
	out := matches[:0]
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), base) {
			out = append(out, m)
		}
	}
	// backup names embed a fixed-width timestamp
	sort.Strings(out)
	return out
}

// cleanupOldBackups removes the oldest backups beyond maxBackups.
func (b *fileBase) cleanupOldBackups() {
	old := backups(b.filename)
	if len(old) <= b.maxBackups {
		return
	}
	for _, name := range old[:len(old)-b.maxBackups] {
		if err := os.Remove(name); err != nil {
			return
		}
	}
}

// Stats returns a snapshot of the current statistics
func (b *fileBase) Stats() handler.Snapshot {
	return b.stats.GetSnapshot()
}

// CaptureMode requests caller data when the layout renders call sites.
func (b *fileBase) CaptureMode() core.CaptureMode {
	if layout.UsesCallsite(b.layout) {
		return core.CaptureCaller
	}
	return core.CaptureNone
}

// closeFile flushes, syncs and closes the underlying file.
func (b *fileBase) closeFile() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.file == nil {
		return nil
	}
	f := b.file
	b.file = nil
	if err := b.bufWriter.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FileConfig holds configuration for file handler
type FileConfig struct {
	// Filename is the path to the log file
	Filename string
	// Layout renders each line (default: DefaultLayout)
	Layout layout.Layout
	// Async enables asynchronous logging
	Async bool
	// BufferSize is the size of the async queue (default: 1000)
	BufferSize int
	// MaxSize is the maximum size in bytes before rotation (0 = no size rotation)
	MaxSize int64
	// MaxBackups is the maximum number of old log files to retain (0 = keep all)
	MaxBackups int
	// RotateInterval is the interval for time-based rotation (0 = no interval rotation)
	RotateInterval time.Duration
	// OverflowPolicy defines per-level overflow behavior (default: uses DefaultLevelPolicy)
	OverflowPolicy map[core.Level]handler.OverflowPolicy
	// BlockTimeout is the timeout for blocking overflow policy (default: 100ms)
	BlockTimeout time.Duration
	// DrainTimeout is the timeout for draining queue on Close (default: 5s)
	DrainTimeout time.Duration
}

// applyFileDefaults fills in zero-value fields with defaults.
func applyFileDefaults(cfg *FileConfig) {
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

func openFile(name string) (*os.File, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// initFileBase initializes a fileBase in place with the given config and opened file.
func initFileBase(b *fileBase, cfg FileConfig, file *os.File, fileSize int64) {
	b.filename = cfg.Filename
	b.file = file
	b.bufWriter = bufio.NewWriterSize(file, 4096)
	b.layout = cfg.Layout
	b.appender, _ = cfg.Layout.(layout.Appender)
	b.maxSize = cfg.MaxSize
	b.maxBackups = cfg.MaxBackups
	b.rotateInterval = cfg.RotateInterval
	b.currentSize = fileSize
	b.lastRotateTime = time.Now()
	b.hasRotation = cfg.MaxSize > 0 || cfg.RotateInterval > 0
	b.stats = handler.NewStats()
	b.closed = make(chan struct{})
	b.syncBuf.Grow(256)
}

// NewFileHandler creates a new file handler.
// Returns a SyncFileHandler when Async is false, or an AsyncFileHandler
// when Async is true. Both implement Handler, CallSiteCapturer and StatsProvider.
func NewFileHandler(cfg FileConfig) (handler.Handler, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("filehandler: filename is required")
	}
	applyFileDefaults(&cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0755); err != nil {
		return nil, fmt.Errorf("filehandler: %w", err)
	}
	file, err := openFile(cfg.Filename)
	if err != nil {
		return nil, fmt.Errorf("filehandler: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("filehandler: %w", err)
	}

	if cfg.Async {
		return newAsyncFileHandler(cfg, file, info.Size()), nil
	}
	return newSyncFileHandler(cfg, file, info.Size()), nil
}
