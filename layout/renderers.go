package layout

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
)

// rendererFunc appends the value of a ${name:arg} renderer to buf.
type rendererFunc func(buf *bytes.Buffer, entry *core.Entry, arg string)

var renderers map[string]rendererFunc

func init() {
	renderers = map[string]rendererFunc{
		"message":        renderMessage,
		"logger":         renderLogger,
		"level":          renderLevel,
		"time":           renderTime,
		"longdate":       renderTime,
		"template":       renderTemplate,
		"exception":      renderException,
		"callsite":       renderCallsite,
		"callsite-file":  renderCallsiteFile,
		"event-property": renderEventProperty,
		"scope-property": renderScopeProperty,
		"fields":         renderFields,
		"hostname":       renderHostname,
		"newline":        renderNewline,
	}
}

// fastRender returns the value of a single renderer without a buffer for
// renderers that already hold a string.
func fastRender(seg segment, entry *core.Entry) (string, bool) {
	switch seg.name {
	case "message":
		return entry.Message, true
	case "logger":
		return entry.LoggerName, true
	case "template":
		return entry.Template, true
	}
	return "", false
}

func renderMessage(buf *bytes.Buffer, entry *core.Entry, _ string) {
	buf.WriteString(entry.Message)
}

func renderLogger(buf *bytes.Buffer, entry *core.Entry, _ string) {
	buf.WriteString(entry.LoggerName)
}

func renderLevel(buf *bytes.Buffer, entry *core.Entry, _ string) {
	buf.WriteString(entry.Level.String())
}

// renderTime uses arg as a Go time layout, RFC3339 by default.
func renderTime(buf *bytes.Buffer, entry *core.Entry, arg string) {
	format := time.RFC3339
	if arg != "" {
		format = arg
	}
	buf.Write(entry.Time.AppendFormat(buf.AvailableBuffer(), format))
}

func renderTemplate(buf *bytes.Buffer, entry *core.Entry, _ string) {
	buf.WriteString(entry.Template)
}

// renderException writes the explicit error. With arg "type" it writes the
// error's dynamic type instead of its message.
func renderException(buf *bytes.Buffer, entry *core.Entry, arg string) {
	if entry.Err == nil {
		return
	}
	if arg == "type" {
		fmt.Fprintf(buf, "%T", entry.Err)
		return
	}
	buf.WriteString(entry.Err.Error())
}

// renderCallsite writes Class.Method of the call site, from precomputed
// caller data when present, otherwise from the captured PC.
func renderCallsite(buf *bytes.Buffer, entry *core.Entry, _ string) {
	if entry.Caller.Defined {
		buf.WriteString(entry.Caller.Class)
		if entry.Caller.Method != "" {
			buf.WriteByte('.')
			buf.WriteString(entry.Caller.Method)
		}
		return
	}
	if entry.PC == 0 {
		return
	}
	frame, _ := runtime.CallersFrames([]uintptr{entry.PC}).Next()
	buf.WriteString(frame.Function)
}

func renderCallsiteFile(buf *bytes.Buffer, entry *core.Entry, _ string) {
	if !entry.Caller.Defined {
		return
	}
	buf.WriteString(entry.Caller.ShortFile)
	buf.WriteByte(':')
	buf.Write(strconv.AppendInt(buf.AvailableBuffer(), int64(entry.Caller.Line), 10))
}

func renderEventProperty(buf *bytes.Buffer, entry *core.Entry, key string) {
	if f, ok := core.LookupField(entry.Fields, key); ok {
		buf.WriteString(f.StringValue())
	}
}

func renderScopeProperty(buf *bytes.Buffer, entry *core.Entry, key string) {
	if f, ok := core.LookupField(entry.Scope, key); ok {
		buf.WriteString(f.StringValue())
	}
}

// renderFields writes " key=value" for every event field.
func renderFields(buf *bytes.Buffer, entry *core.Entry, _ string) {
	for _, field := range entry.Fields {
		buf.WriteByte(' ')
		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.WriteString(field.StringValue())
	}
}

var hostname = func() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}()

func renderHostname(buf *bytes.Buffer, _ *core.Entry, _ string) {
	buf.WriteString(hostname)
}

func renderNewline(buf *bytes.Buffer, _ *core.Entry, _ string) {
	buf.WriteByte('\n')
}
