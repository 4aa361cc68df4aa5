package layout

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/philipp01105/nlog-loupe/core"
)

// Layout renders a log entry into a string.
type Layout interface {
	// Render renders the entry. It never fails; an empty result is valid.
	Render(entry *core.Entry) string
}

// Appender is an optional interface for layouts that can render straight
// into a caller-provided buffer.
type Appender interface {
	AppendTo(buf *bytes.Buffer, entry *core.Entry)
}

// Render renders l against entry, treating a nil layout as empty.
func Render(l Layout, entry *core.Entry) string {
	if l == nil || entry == nil {
		return ""
	}
	return l.Render(entry)
}

// bufferPool is a pool of bytes.Buffer to reduce allocations
var bufferPool = &sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64*1024 { // Don't keep very large buffers
		return
	}
	bufferPool.Put(buf)
}

// segment is one parsed piece of a SimpleLayout: either literal text or a
// renderer call.
type segment struct {
	literal string
	name    string
	render  rendererFunc
	arg     string
}

// SimpleLayout is a text layout made of literal text and ${...} renderers.
type SimpleLayout struct {
	text     string
	segments []segment
	// static is set when the layout has no renderers
	static bool
}

// Parse parses a layout string. An empty string yields an empty layout
// that always renders "".
func Parse(text string) (*SimpleLayout, error) {
	l := &SimpleLayout{text: text, static: true}
	rest := text
	for len(rest) > 0 {
		start := strings.Index(rest, "${")
		if start < 0 {
			l.segments = append(l.segments, segment{literal: rest})
			break
		}
		if start > 0 {
			l.segments = append(l.segments, segment{literal: rest[:start]})
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return nil, fmt.Errorf("layout %q: unterminated renderer at offset %d", text, len(text)-len(rest)+start)
		}
		body := rest[start+2 : start+end]
		name, arg, _ := strings.Cut(body, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		fn, ok := renderers[name]
		if !ok {
			return nil, fmt.Errorf("layout %q: unknown renderer %q", text, name)
		}
		l.segments = append(l.segments, segment{name: name, render: fn, arg: arg})
		l.static = false
		rest = rest[start+end+1:]
	}
	return l, nil
}

// MustParse is like Parse but panics on error. It is meant for layouts
// written as constants in code.
func MustParse(text string) *SimpleLayout {
	l, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return l
}

// Render renders the entry as a string
func (l *SimpleLayout) Render(entry *core.Entry) string {
	if l == nil || len(l.segments) == 0 {
		return ""
	}
	if l.static {
		return l.text
	}
	// Single renderer layouts such as "${message}" avoid the buffer
	if len(l.segments) == 1 && l.segments[0].render != nil {
		if fast, ok := fastRender(l.segments[0], entry); ok {
			return fast
		}
	}

	buf := getBuffer()
	l.AppendTo(buf, entry)
	s := buf.String()
	putBuffer(buf)
	return s
}

// AppendTo renders the entry into buf (implements Appender).
func (l *SimpleLayout) AppendTo(buf *bytes.Buffer, entry *core.Entry) {
	if l == nil {
		return
	}
	for _, seg := range l.segments {
		if seg.render == nil {
			buf.WriteString(seg.literal)
			continue
		}
		seg.render(buf, entry, seg.arg)
	}
}

// Uses reports whether the layout contains the named renderer.
func (l *SimpleLayout) Uses(name string) bool {
	if l == nil {
		return false
	}
	for _, seg := range l.segments {
		if seg.name == name {
			return true
		}
	}
	return false
}

// UsesCallsite reports whether rendering l needs precomputed caller data.
func UsesCallsite(l Layout) bool {
	s, ok := l.(*SimpleLayout)
	return ok && (s.Uses("callsite") || s.Uses("callsite-file"))
}

// String returns the original layout text
func (l *SimpleLayout) String() string {
	if l == nil {
		return ""
	}
	return l.text
}
