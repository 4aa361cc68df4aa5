package core

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Entry represents a log event with all its metadata. An Entry is owned by
// the logger that created it; handlers treat it as read-only.
type Entry struct {
	Time       time.Time
	Level      Level
	LoggerName string
	// Message is the fully formatted message.
	Message string
	// Template and Args are the raw format string and its positional
	// arguments. Template is empty for messages logged without formatting.
	Template string
	Args     []interface{}
	// Err is the error explicitly attached to the event, if any.
	Err    error
	Fields []Field
	// Scope holds ambient properties captured from a context.Context.
	Scope []Field
	// PC is the program counter of the logging call site, 0 if not captured.
	PC     uintptr
	Caller CallerInfo
}

// CallerInfo contains precomputed information about the caller
type CallerInfo struct {
	File      string
	ShortFile string
	Line      int
	// Function is the fully qualified function symbol.
	Function string
	// Class is the package path plus receiver type, or the package path
	// for plain functions.
	Class string
	// Method is the bare function or method name.
	Method  string
	Defined bool
}

// CaptureMode tells the logger which call-site data a handler needs.
type CaptureMode uint8

const (
	// CaptureNone skips call-site capture entirely
	CaptureNone CaptureMode = 0
	// CaptureCaller fills Entry.Caller
	CaptureCaller CaptureMode = 1 << iota
	// CaptureFrame fills Entry.PC
	CaptureFrame
)

// Has reports whether m includes all bits of o.
func (m CaptureMode) Has(o CaptureMode) bool {
	return m&o == o && o != 0
}

// entryPool is a pool of Entry objects to reduce allocations
var entryPool = sync.Pool{
	New: func() interface{} {
		return &Entry{
			Fields: make([]Field, 0, 8), // Pre-allocate for 8 fields
		}
	},
}

// GetEntry retrieves an Entry from the pool
func GetEntry() *Entry {
	e := entryPool.Get().(*Entry)
	e.Time = time.Now()
	e.Fields = e.Fields[:0]
	e.Caller = CallerInfo{}
	return e
}

// PutEntry returns an Entry to the pool
func PutEntry(e *Entry) {
	if e == nil {
		return
	}
	// Re-slice to zero length; GC handles reference cleanup
	e.Fields = e.Fields[:0]
	e.Scope = nil
	e.Message = ""
	e.LoggerName = ""
	e.Template = ""
	e.Args = nil
	e.Err = nil
	e.PC = 0
	e.Caller = CallerInfo{}
	entryPool.Put(e)
}

// GetCaller retrieves caller information
func GetCaller(skip int) CallerInfo {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return CallerInfo{}
	}

	var funcName string
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
	}
	class, method := SplitFunction(funcName)

	return CallerInfo{
		File:      file,
		ShortFile: filepath.Base(file),
		Line:      line,
		Function:  funcName,
		Class:     class,
		Method:    method,
		Defined:   true,
	}
}

// CallerFromPC resolves a program counter, such as slog.Record.PC, into
// caller information.
func CallerFromPC(pc uintptr) CallerInfo {
	if pc == 0 {
		return CallerInfo{}
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.Function == "" && frame.File == "" {
		return CallerInfo{}
	}
	class, method := SplitFunction(frame.Function)
	return CallerInfo{
		File:      frame.File,
		ShortFile: filepath.Base(frame.File),
		Line:      frame.Line,
		Function:  frame.Function,
		Class:     class,
		Method:    method,
		Defined:   true,
	}
}

// GetCallerPC returns the program counter of the caller, 0 when unavailable.
func GetCallerPC(skip int) uintptr {
	var pcs [1]uintptr
	// runtime.Callers counts itself as frame 0
	if runtime.Callers(skip+1, pcs[:]) < 1 {
		return 0
	}
	return pcs[0]
}

// SplitFunction splits a Go function symbol such as
// "github.com/acme/app/worker.(*Pool).Run" into its class
// ("github.com/acme/app/worker.Pool") and method ("Run"). Plain functions
// use the package path as class. Closures keep their enclosing function
// name as method ("Run.func1").
func SplitFunction(symbol string) (class, method string) {
	if symbol == "" {
		return "", ""
	}
	// The package path may itself contain dots in its last element only
	// after the final slash.
	slash := strings.LastIndexByte(symbol, '/')
	dot := strings.IndexByte(symbol[slash+1:], '.')
	if dot < 0 {
		return "", symbol
	}
	dot += slash + 1
	pkg, rest := symbol[:dot], symbol[dot+1:]

	if strings.HasPrefix(rest, "(") {
		// Method with receiver: (*Type).Method or (Type).Method
		end := strings.IndexByte(rest, ')')
		if end > 0 && end+2 <= len(rest) {
			recv := strings.TrimPrefix(rest[1:end], "*")
			return pkg + "." + recv, rest[end+2:]
		}
		return pkg, rest
	}

	// Type.Method with a value receiver, or a plain function
	if i := strings.IndexByte(rest, '.'); i > 0 && !strings.HasPrefix(rest[i+1:], "func") {
		return pkg + "." + rest[:i], rest[i+1:]
	}
	return pkg, rest
}
