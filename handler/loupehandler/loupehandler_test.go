package loupehandler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/handler"
	"github.com/philipp01105/nlog-loupe/layout"
	"github.com/philipp01105/nlog-loupe/loupe"
)

// recordingWriter captures every message written to it.
type recordingWriter struct {
	mu       sync.Mutex
	messages []loupe.Message
}

func (w *recordingWriter) Write(msg loupe.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
}

func (w *recordingWriter) Messages() []loupe.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]loupe.Message(nil), w.messages...)
}

// sessionWriter records StartSession calls.
type sessionWriter struct {
	recordingWriter
	sessions []loupe.AgentConfig
}

func (w *sessionWriter) StartSession(cfg loupe.AgentConfig) {
	w.sessions = append(w.sessions, cfg)
}

func mustBuild(t *testing.T, b *Builder) *Handler {
	t.Helper()
	h, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return h
}

func TestMapSeverity(t *testing.T) {
	tests := []struct {
		level core.Level
		want  loupe.Severity
	}{
		{core.TraceLevel, loupe.Verbose},
		{core.DebugLevel, loupe.Verbose},
		{core.InfoLevel, loupe.Information},
		{core.WarnLevel, loupe.Warning},
		{core.ErrorLevel, loupe.Error},
		{core.FatalLevel, loupe.Critical},
		{core.PanicLevel, loupe.Critical},
		{core.OffLevel, loupe.None},
		{core.OffLevel + 10, loupe.None},
		{core.TraceLevel - 5, loupe.Verbose},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := MapSeverity(tt.level); got != tt.want {
				t.Errorf("MapSeverity(%v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestMapSeverity_Monotonic(t *testing.T) {
	prev := MapSeverity(core.TraceLevel)
	for l := core.TraceLevel + 1; l < core.OffLevel; l++ {
		cur := MapSeverity(l)
		if cur.Rank() < prev.Rank() {
			t.Errorf("MapSeverity(%v) = %v is less severe than MapSeverity(%v) = %v", l, cur, l-1, prev)
		}
		prev = cur
	}
}

func TestExtractError(t *testing.T) {
	explicit := errors.New("explicit")
	first := errors.New("first")
	second := errors.New("second")

	tests := []struct {
		name  string
		entry *core.Entry
		want  error
	}{
		{"nil entry", nil, nil},
		{"no args", &core.Entry{}, nil},
		{"explicit wins", &core.Entry{Err: explicit, Args: []interface{}{first}}, explicit},
		{"second arg", &core.Entry{Args: []interface{}{"Shemp", first, second}}, first},
		{"no error args", &core.Entry{Args: []interface{}{"Larry", 1, 10}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractError(tt.entry); got != tt.want {
				t.Errorf("ExtractError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveCaller(t *testing.T) {
	t.Run("class falls back to logger name", func(t *testing.T) {
		e := &core.Entry{
			LoggerName: "BusyWork",
			Caller:     core.CallerInfo{Method: "Run", File: "worker.go", Line: 12},
		}
		src := ResolveCaller(e)
		if src.ClassName() != "BusyWork" || src.MethodName() != "Run" || src.FileName() != "worker.go" || src.LineNumber() != 12 {
			t.Errorf("Unexpected source %+v", *src)
		}
	})

	t.Run("all empty returns sentinel", func(t *testing.T) {
		a := ResolveCaller(&core.Entry{LoggerName: "BusyWork"})
		b := ResolveCaller(&core.Entry{LoggerName: "Other", Caller: core.CallerInfo{Line: 7}})
		if a != NoSource || b != NoSource {
			t.Error("Expected the shared NoSource descriptor")
		}
	})

	t.Run("line dropped without file", func(t *testing.T) {
		src := ResolveCaller(&core.Entry{Caller: core.CallerInfo{Method: "Run", Class: "main.Worker", Line: 7}})
		if src.LineNumber() != 0 {
			t.Errorf("LineNumber() = %d, want 0", src.LineNumber())
		}
		if src.ClassName() != "main.Worker" {
			t.Errorf("ClassName() = %q", src.ClassName())
		}
	})

	t.Run("nil entry", func(t *testing.T) {
		if ResolveCaller(nil) != NoSource {
			t.Error("Expected NoSource for nil entry")
		}
	})
}

type frameSource struct{}

func (frameSource) pc() uintptr { return core.GetCallerPC(1) }

func TestResolveFrame(t *testing.T) {
	src := ResolveFrame(core.GetCallerPC(1))
	if src.MethodName() != "TestResolveFrame" {
		t.Errorf("MethodName() = %q, want TestResolveFrame", src.MethodName())
	}
	if !strings.HasSuffix(src.ClassName(), "/loupehandler") {
		t.Errorf("ClassName() = %q, want package path", src.ClassName())
	}
	if !strings.HasSuffix(src.FileName(), "loupehandler_test.go") || src.LineNumber() == 0 {
		t.Errorf("Unexpected file/line %q:%d", src.FileName(), src.LineNumber())
	}

	m := ResolveFrame(frameSource{}.pc())
	if m.MethodName() != "pc" || !strings.HasSuffix(m.ClassName(), "/loupehandler.frameSource") {
		t.Errorf("Unexpected method source %q %q", m.ClassName(), m.MethodName())
	}

	if ResolveFrame(0) != NoSource {
		t.Error("Expected NoSource for a zero pc")
	}
}

func TestSourceFromFrame(t *testing.T) {
	tests := []struct {
		name       string
		frame      runtime.Frame
		noSource   bool
		wantMethod string
		wantClass  string
		wantFile   string
		wantLine   int
	}{
		{
			name:       "full frame",
			frame:      runtime.Frame{Function: "example.com/app.(*Worker).Run", File: "/src/worker.go", Line: 42},
			wantMethod: "Run",
			wantClass:  "example.com/app.Worker",
			wantFile:   "/src/worker.go",
			wantLine:   42,
		},
		{
			name:       "no file keeps method and class",
			frame:      runtime.Frame{Function: "example.com/app.(*Worker).Run", Line: 42},
			wantMethod: "Run",
			wantClass:  "example.com/app.Worker",
		},
		{
			name:     "no function",
			frame:    runtime.Frame{File: "/src/worker.go", Line: 42},
			noSource: true,
		},
		{
			name:     "no method name",
			frame:    runtime.Frame{Function: "example.com/app.", File: "/src/worker.go", Line: 42},
			noSource: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sourceFromFrame(tt.frame)
			if tt.noSource {
				if src != NoSource {
					t.Errorf("Expected NoSource, got %+v", src)
				}
				return
			}
			if src.MethodName() != tt.wantMethod || src.ClassName() != tt.wantClass {
				t.Errorf("got %q %q, want %q %q", src.ClassName(), src.MethodName(), tt.wantClass, tt.wantMethod)
			}
			if src.FileName() != tt.wantFile || src.LineNumber() != tt.wantLine {
				t.Errorf("got %q:%d, want %q:%d", src.FileName(), src.LineNumber(), tt.wantFile, tt.wantLine)
			}
		})
	}
}

func TestNewSource_LineNeedsFile(t *testing.T) {
	if got := NewSource("Run", "pkg.T", "", 42).LineNumber(); got != 0 {
		t.Errorf("LineNumber() = %d, want 0", got)
	}
	if got := NewSource("Run", "pkg.T", "t.go", 42).LineNumber(); got != 42 {
		t.Errorf("LineNumber() = %d, want 42", got)
	}
}

func TestHandler_NilEntry(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w))
	if err := h.Handle(nil); err != nil {
		t.Errorf("Handle(nil) error = %v", err)
	}
	if n := len(w.Messages()); n != 0 {
		t.Errorf("Expected 0 writes, got %d", n)
	}
}

func TestHandler_OneWritePerEntry(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w))
	for i := 0; i < 3; i++ {
		h.Handle(&core.Entry{Level: core.InfoLevel, Message: fmt.Sprintf("m%d", i)})
	}
	if n := len(w.Messages()); n != 3 {
		t.Errorf("Expected 3 writes, got %d", n)
	}
}

func TestHandler_Translate(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w))

	cause := errors.New("boom")
	e := &core.Entry{
		Level:      core.WarnLevel,
		LoggerName: "BusyWork",
		Message:    "Worker Shemp threw an exception: boom",
		Template:   "Worker %s threw an exception: %v",
		Args:       []interface{}{"Shemp", cause},
		Caller:     core.CallerInfo{Method: "run", Class: "main.Worker", File: "/src/busywork.go", Line: 42, Defined: true},
	}
	h.Handle(e)

	msgs := w.Messages()
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Severity != loupe.Warning {
		t.Errorf("Severity = %v", msg.Severity)
	}
	if msg.LogSystem != "NLog" {
		t.Errorf("LogSystem = %q", msg.LogSystem)
	}
	if msg.Mode != loupe.Queued {
		t.Errorf("Mode = %v", msg.Mode)
	}
	if msg.Description != e.Message {
		t.Errorf("Description = %q", msg.Description)
	}
	if msg.Category != "BusyWork" {
		t.Errorf("Category = %q", msg.Category)
	}
	if msg.Exception != cause {
		t.Errorf("Exception = %v", msg.Exception)
	}
	if msg.Caption != "" || msg.Details != "" || msg.User != "" {
		t.Errorf("Expected absent caption/details/user, got %q %q %q", msg.Caption, msg.Details, msg.User)
	}
	src := msg.Source
	if src.ClassName() != "main.Worker" || src.MethodName() != "run" || src.LineNumber() != 42 {
		t.Errorf("Unexpected source %v %v %v", src.ClassName(), src.MethodName(), src.LineNumber())
	}
}

func TestHandler_CategoryFallbackAndOverride(t *testing.T) {
	w := &recordingWriter{}
	e := &core.Entry{LoggerName: "Application", Message: "hello"}

	empty := mustBuild(t, NewBuilder(w).WithCategory(layout.MustParse("${event-property:area}")))
	empty.Handle(e)

	override := mustBuild(t, NewBuilder(w).WithCategory(layout.MustParse("Demo.${logger}")))
	override.Handle(e)

	msgs := w.Messages()
	if msgs[0].Category != "Application" {
		t.Errorf("Empty category should fall back to logger name, got %q", msgs[0].Category)
	}
	if msgs[1].Category != "Demo.Application" {
		t.Errorf("Category override = %q, want Demo.Application", msgs[1].Category)
	}
}

func TestHandler_MessageFallback(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w).WithLayout(layout.MustParse("${event-property:missing}")))
	h.Handle(&core.Entry{Message: "formatted"})
	if got := w.Messages()[0].Description; got != "formatted" {
		t.Errorf("Description = %q, want formatted", got)
	}
}

func TestHandler_CallSiteDisabled(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w).WithCallSite(false))
	h.Handle(&core.Entry{Caller: core.CallerInfo{Method: "Run", Class: "main"}})

	if src, _ := w.Messages()[0].Source.(*Source); src != NoSource {
		t.Error("Expected NoSource when call site is disabled")
	}
	if got := handler.CaptureModeOf(h); got != core.CaptureNone {
		t.Errorf("CaptureMode() = %v, want none", got)
	}
}

func TestHandler_CaptureMode(t *testing.T) {
	w := &recordingWriter{}
	loupeTarget := mustBuild(t, NewBuilder(w))
	if !loupeTarget.CaptureMode().Has(core.CaptureCaller) {
		t.Error("Loupe target should request caller info")
	}
	gibraltar := mustBuild(t, NewGibraltarBuilder(w))
	if !gibraltar.CaptureMode().Has(core.CaptureFrame) {
		t.Error("Gibraltar target should request stack frames")
	}
	if !handler.CanRecycle(loupeTarget) {
		t.Error("Handler should allow entry recycling")
	}
}

func TestHandler_Gibraltar(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewGibraltarBuilder(w))

	h.Handle(&core.Entry{
		Level:      core.ErrorLevel,
		LoggerName: "BusyWork",
		Message:    "outer failure",
		PC:         core.GetCallerPC(1),
		Fields:     []core.Field{{Key: "worker", Type: core.StringType, Str: "Moe"}},
	})

	msg := w.Messages()[0]
	if msg.Description != "outer failure" || msg.Category != "BusyWork" {
		t.Errorf("Unexpected description/category %q %q", msg.Description, msg.Category)
	}
	if msg.Details != "" || msg.Caption != "" {
		t.Errorf("Gibraltar target has no details/caption, got %q %q", msg.Details, msg.Caption)
	}
	if msg.Source.MethodName() != "TestHandler_Gibraltar" {
		t.Errorf("MethodName() = %q", msg.Source.MethodName())
	}
}

func TestHandler_CaptionAndDetails(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w).
		WithCaption(layout.MustParse("${logger}: ${event-property:worker}")).
		WithEventProperties(true).
		WithScopeProperties(true).
		WithContextProperty("level", layout.MustParse("${level}")))

	ctx := core.WithScope(context.Background(), core.Field{Key: "request", Type: core.StringType, Str: "r-1"})
	h.Handle(&core.Entry{
		Level:      core.InfoLevel,
		LoggerName: "BusyWork",
		Message:    "done",
		Fields:     []core.Field{{Key: "worker", Type: core.StringType, Str: "Larry"}},
		Scope:      core.ScopeFields(ctx),
	})

	msg := w.Messages()[0]
	if msg.Caption != "BusyWork: Larry" {
		t.Errorf("Caption = %q", msg.Caption)
	}
	want := `{"level":"INFO","worker":"Larry","request":"r-1"}`
	if msg.Details != want {
		t.Errorf("Details = %s, want %s", msg.Details, want)
	}
}

func TestHandler_EmptyDetailsAreAbsent(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w).WithEventProperties(true))
	h.Handle(&core.Entry{Message: "no fields"})
	if got := w.Messages()[0].Details; got != "" {
		t.Errorf("Details = %q, want absent", got)
	}
}

func TestHandler_MessageDetailsOverride(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w).
		WithEventProperties(true).
		WithMessageDetails(layout.MustParse("<details>${message}</details>")))
	h.Handle(&core.Entry{Message: "x", Fields: []core.Field{{Key: "k", Str: "v"}}})
	if got := w.Messages()[0].Details; got != "<details>x</details>" {
		t.Errorf("Details = %q", got)
	}
}

func TestConfig_DerivedFlags(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IncludeEventProperties() || cfg.IncludeScopeProperties() || cfg.ContextProperties() != nil {
		t.Error("Default config should have no details")
	}
	if cfg.DetailsLayout() != nil {
		t.Error("Default config should have no details layout")
	}

	b := NewBuilder(&recordingWriter{}).WithEventProperties(false)
	if b.cfg.Details != nil {
		t.Error("Disabling a flag should not allocate the details spec")
	}
	b.WithScopeProperties(true)
	if b.cfg.Details == nil || !b.cfg.IncludeScopeProperties() {
		t.Error("Enabling a flag should allocate the details spec")
	}
}

func TestBuilder_ConfigIsCopied(t *testing.T) {
	b := NewBuilder(&recordingWriter{}).WithContextProperty("a", layout.MustParse("${message}"))
	h := mustBuild(t, b)
	b.WithContextProperty("b", layout.MustParse("${logger}"))

	if n := len(h.Config().ContextProperties()); n != 1 {
		t.Errorf("Built handler should not see later builder changes, got %d properties", n)
	}
}

func TestBuilder_NoWriter(t *testing.T) {
	if _, err := NewBuilder(nil).Build(); !errors.Is(err, ErrNoWriter) {
		t.Errorf("Build() error = %v, want ErrNoWriter", err)
	}
}

func TestBuilder_StartsSession(t *testing.T) {
	w := &sessionWriter{}
	mustBuild(t, NewBuilder(w).WithSession(loupe.AgentConfig{Application: "BusyWork"}))
	mustBuild(t, NewBuilder(w))

	if len(w.sessions) != 1 || w.sessions[0].Application != "BusyWork" {
		t.Errorf("Unexpected sessions %+v", w.sessions)
	}
}

func TestBuilder_Diagnostics(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	h := mustBuild(t, NewBuilder(&recordingWriter{}).WithName("loupe-main").WithDiagnostics(zap.New(obs)))
	h.Close()

	if n := logs.FilterMessage("target created").FilterField(zap.String("name", "loupe-main")).Len(); n != 1 {
		t.Errorf("Expected target created log, got %d", n)
	}
	if n := logs.FilterMessage("target closed").Len(); n != 1 {
		t.Errorf("Expected target closed log, got %d", n)
	}
}

func TestHandler_WithAgent(t *testing.T) {
	agent := loupe.NewAgent()
	h := mustBuild(t, NewBuilder(agent).WithSession(loupe.AgentConfig{Application: "BusyWork"}))
	if agent.Session().Application != "BusyWork" {
		t.Fatalf("Expected session to be started by Build")
	}

	h.Handle(&core.Entry{Level: core.InfoLevel, Message: "first line\nsecond line"})
	if err := agent.EndSession("test"); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if stats := agent.Stats(); stats.Written != 1 {
		t.Errorf("Expected 1 written message, got %+v", stats)
	}
}

func TestHandler_Concurrent(t *testing.T) {
	w := &recordingWriter{}
	h := mustBuild(t, NewBuilder(w).WithEventProperties(true))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Handle(&core.Entry{
					Level:  core.DebugLevel,
					Fields: []core.Field{{Key: "g", Type: core.IntType, Int64: int64(g)}},
				})
			}
		}(g)
	}
	wg.Wait()

	if n := len(w.Messages()); n != 400 {
		t.Errorf("Expected 400 writes, got %d", n)
	}
}

func BenchmarkHandler_Handle(b *testing.B) {
	h, _ := NewBuilder(loupe.WriterFunc(func(loupe.Message) {})).Build()
	e := &core.Entry{
		Level:      core.InfoLevel,
		LoggerName: "BusyWork",
		Message:    "Larry message 1 of 10",
		Caller:     core.CallerInfo{Method: "Run", Class: "main.Worker", File: "worker.go", Line: 1},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h.Handle(e)
	}
}
