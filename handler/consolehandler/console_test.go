package consolehandler

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
	"github.com/philipp01105/nlog-loupe/layout"
)

// safeBuffer is a bytes.Buffer safe for the async writer goroutine.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// gateWriter blocks every Write until release is closed.
type gateWriter struct {
	release chan struct{}
}

func (g *gateWriter) Write(p []byte) (int, error) {
	<-g.release
	return len(p), nil
}

func TestConsoleHandler_Sync(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(ConsoleConfig{
		Writer: &buf,
		Async:  false,
	})
	defer h.Close()

	entry := core.GetEntry()
	entry.Level = core.InfoLevel
	entry.Message = "test message"
	entry.Fields = append(entry.Fields, core.Field{Key: "key", Type: core.StringType, Str: "value"})

	if err := h.Handle(entry); err != nil {
		t.Errorf("Handle() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "[INFO] test message key=value") {
		t.Errorf("Expected default layout output, got: %s", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("Expected newline-terminated line, got: %q", output)
	}
}

func TestConsoleHandler_CustomLayout(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(ConsoleConfig{
		Writer: &buf,
		Layout: layout.MustParse("${logger}|${message}"),
	})
	defer h.Close()

	h.Handle(&core.Entry{LoggerName: "Application", Message: "Starting application."})

	if got := buf.String(); got != "Application|Starting application.\n" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestConsoleHandler_NilEntry(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(ConsoleConfig{Writer: &buf})
	if err := h.Handle(nil); err != nil {
		t.Errorf("Handle(nil) error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output for nil entry, got %q", buf.String())
	}
}

func TestConsoleHandler_Async(t *testing.T) {
	var buf safeBuffer
	h := NewConsoleHandler(ConsoleConfig{
		Writer:     &buf,
		Async:      true,
		BufferSize: 100,
	})

	for i := 0; i < 50; i++ {
		entry := core.GetEntry()
		entry.Level = core.InfoLevel
		entry.Message = "async test"
		if err := h.Handle(entry); err != nil {
			t.Errorf("Handle() error = %v", err)
		}
		core.PutEntry(entry) // lines are rendered before Handle returns
	}

	h.Close()

	if count := strings.Count(buf.String(), "async test"); count != 50 {
		t.Errorf("Expected 50 messages, got %d", count)
	}
}

func TestConsoleHandler_CaptureMode(t *testing.T) {
	plain := NewConsoleHandler(ConsoleConfig{Writer: io.Discard})
	if got := handler.CaptureModeOf(plain); got != core.CaptureNone {
		t.Errorf("Expected no capture for default layout, got %v", got)
	}

	withCallsite := NewConsoleHandler(ConsoleConfig{
		Writer: io.Discard,
		Layout: layout.MustParse("${callsite}: ${message}"),
	})
	if got := handler.CaptureModeOf(withCallsite); !got.Has(core.CaptureCaller) {
		t.Errorf("Expected caller capture for callsite layout, got %v", got)
	}
}

func TestOverflowPolicy_DropNewest(t *testing.T) {
	gate := &gateWriter{release: make(chan struct{})}
	h := NewConsoleHandler(ConsoleConfig{
		Writer:     gate,
		Async:      true,
		BufferSize: 2,
		OverflowPolicy: map[core.Level]handler.OverflowPolicy{
			core.InfoLevel: handler.DropNewest,
		},
	})

	// The writer is stuck, so at most 1 in flight + 2 queued survive
	for i := 0; i < 10; i++ {
		h.Handle(&core.Entry{Level: core.InfoLevel, Message: "test"})
	}

	stats := h.(handler.StatsProvider).Stats()
	if stats.DroppedTotal[core.InfoLevel] < 7 {
		t.Errorf("Expected at least 7 dropped logs, got %d", stats.DroppedTotal[core.InfoLevel])
	}

	close(gate.release)
	h.Close()
}

func TestOverflowPolicy_DropOldest(t *testing.T) {
	gate := &gateWriter{release: make(chan struct{})}
	h := NewConsoleHandler(ConsoleConfig{
		Writer:     gate,
		Async:      true,
		BufferSize: 2,
		OverflowPolicy: map[core.Level]handler.OverflowPolicy{
			core.WarnLevel: handler.DropOldest,
		},
	})

	for i := 0; i < 10; i++ {
		h.Handle(&core.Entry{Level: core.WarnLevel, Message: "warn"})
	}

	stats := h.(handler.StatsProvider).Stats()
	if stats.DroppedTotal[core.WarnLevel] == 0 {
		t.Error("Expected some dropped logs with DropOldest policy")
	}

	close(gate.release)
	h.Close()
}

func TestOverflowPolicy_Block(t *testing.T) {
	gate := &gateWriter{release: make(chan struct{})}
	h := NewConsoleHandler(ConsoleConfig{
		Writer:       gate,
		Async:        true,
		BufferSize:   1,
		BlockTimeout: 10 * time.Millisecond,
		OverflowPolicy: map[core.Level]handler.OverflowPolicy{
			core.ErrorLevel: handler.Block,
		},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 4; i++ {
			h.Handle(&core.Entry{Level: core.ErrorLevel, Message: "error"})
		}
	}()

	// Blocked writers fall back to a synchronous write, which also waits
	// on the gate; release it once the timeout has been hit.
	time.Sleep(100 * time.Millisecond)
	close(gate.release)
	<-done
	h.Close()

	stats := h.(handler.StatsProvider).Stats()
	if stats.BlockedTotal == 0 {
		t.Error("Expected blocked writes with Block policy")
	}
	if stats.TotalDropped() != 0 {
		t.Errorf("Block policy should not drop, dropped %d", stats.TotalDropped())
	}
}

func TestStats_Telemetry(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(ConsoleConfig{
		Writer: &buf,
		Async:  false, // Synchronous for predictable counting
	})
	defer h.Close()

	for i := 0; i < 5; i++ {
		h.Handle(&core.Entry{Level: core.InfoLevel, Message: "info"})
	}

	stats := h.(handler.StatsProvider).Stats()
	if stats.ProcessedTotal != 5 {
		t.Errorf("Expected 5 processed logs, got %d", stats.ProcessedTotal)
	}
}

func TestHandler_CloseIdempotent(t *testing.T) {
	for _, async := range []bool{false, true} {
		h := NewConsoleHandler(ConsoleConfig{Writer: io.Discard, Async: async})
		for i := 0; i < 3; i++ {
			if err := h.Close(); err != nil {
				t.Errorf("Close #%d (async=%v) failed: %v", i+1, async, err)
			}
		}
	}
}

func TestHandler_WriteAfterClose(t *testing.T) {
	var buf safeBuffer
	h := NewConsoleHandler(ConsoleConfig{Writer: &buf, Async: true})
	h.Close()

	h.Handle(&core.Entry{Level: core.InfoLevel, Message: "late"})
	if !strings.Contains(buf.String(), "late") {
		t.Errorf("Expected synchronous write after Close, got %q", buf.String())
	}
}

func TestIsConcurrentSafeWriter(t *testing.T) {
	tests := []struct {
		name     string
		writer   io.Writer
		expected bool
	}{
		{"io.Discard", io.Discard, true},
		{"os.Stdout", os.Stdout, true},
		{"os.Stderr", os.Stderr, true},
		{"bytes.Buffer", &bytes.Buffer{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConcurrentSafeWriter(tt.writer); got != tt.expected {
				t.Errorf("isConcurrentSafeWriter(%T) = %v, want %v", tt.writer, got, tt.expected)
			}
		})
	}
}

func TestConsoleHandler_Parallel(t *testing.T) {
	var buf safeBuffer
	h := NewConsoleHandler(ConsoleConfig{Writer: &buf})
	defer h.Close()

	const goroutines = 8
	const msgs = 100
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < msgs; i++ {
				h.Handle(&core.Entry{Level: core.InfoLevel, Message: "parallel"})
			}
		}()
	}
	wg.Wait()

	snap := h.(handler.StatsProvider).Stats()
	if snap.ProcessedTotal != goroutines*msgs {
		t.Errorf("Expected %d processed, got %d", goroutines*msgs, snap.ProcessedTotal)
	}
}

func BenchmarkSyncConsoleHandler(b *testing.B) {
	h := NewConsoleHandler(ConsoleConfig{Writer: io.Discard})
	defer h.Close()
	entry := &core.Entry{Level: core.InfoLevel, Message: "benchmark message"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h.Handle(entry)
	}
}
