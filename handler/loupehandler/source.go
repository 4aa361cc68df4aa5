package loupehandler

import (
	"runtime"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/loupe"
)

// Source describes the call site of a log entry. It implements
// loupe.MessageSourceProvider; empty strings mean unknown.
type Source struct {
	method string
	class  string
	file   string
	line   int
}

var _ loupe.MessageSourceProvider = (*Source)(nil)

// NoSource is the shared descriptor used when no call-site data is
// available. It is never modified.
var NoSource = &Source{}

// NewSource creates a descriptor. The line is dropped when file is empty.
func NewSource(method, class, file string, line int) *Source {
	if file == "" {
		line = 0
	}
	return &Source{method: method, class: class, file: file, line: line}
}

// MethodName returns the simple name of the logging function
func (s *Source) MethodName() string { return s.method }

// ClassName returns the package path plus receiver type of the logging function
func (s *Source) ClassName() string { return s.class }

// FileName returns the source file of the call site
func (s *Source) FileName() string { return s.file }

// LineNumber returns the line of the call site, 0 when FileName is empty
func (s *Source) LineNumber() int { return s.line }

// ResolveFrame resolves a captured program counter into a descriptor. A
// frame without file information keeps its method and class. A zero pc or
// a frame without a function symbol yields NoSource.
func ResolveFrame(pc uintptr) *Source {
	if pc == 0 {
		return NoSource
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	return sourceFromFrame(frame)
}

func sourceFromFrame(frame runtime.Frame) *Source {
	if frame.Function == "" {
		return NoSource
	}
	class, method := core.SplitFunction(frame.Function)
	if method == "" {
		return NoSource
	}
	return NewSource(method, class, frame.File, frame.Line)
}

// ResolveCaller builds a descriptor from the caller info captured by the
// logger. When the class is unknown but the method or file is known, the
// logger name stands in for the class. When method, class and file are
// all unknown it returns NoSource.
func ResolveCaller(e *core.Entry) *Source {
	if e == nil {
		return NoSource
	}
	c := &e.Caller
	if c.Method == "" && c.Class == "" && c.File == "" {
		return NoSource
	}
	class := c.Class
	if class == "" {
		class = e.LoggerName
	}
	return NewSource(c.Method, class, c.File, c.Line)
}
