package layout

import (
	"bytes"
	"math"
	"strconv"
	"time"

	"github.com/philipp01105/nlog-loupe/core"
)

// Attribute is a named value of a JSONLayout, rendered by its own layout.
type Attribute struct {
	Name   string
	Layout Layout
}

// JSONLayout renders a flat JSON object. Attributes with an empty rendered
// value are omitted; an object with no members renders as "".
type JSONLayout struct {
	Attributes []Attribute
	// IncludeEventProperties adds every event field as a member
	IncludeEventProperties bool
	// IncludeScopeProperties adds every ambient scope field as a member
	IncludeScopeProperties bool
}

// Render renders the entry as a JSON object
func (l *JSONLayout) Render(entry *core.Entry) string {
	if l == nil {
		return ""
	}
	buf := getBuffer()
	l.AppendTo(buf, entry)
	s := buf.String()
	putBuffer(buf)
	return s
}

// AppendTo renders the entry into buf (implements Appender). Nothing is
// written when the object would be empty.
func (l *JSONLayout) AppendTo(buf *bytes.Buffer, entry *core.Entry) {
	start := buf.Len()
	members := 0
	open := func() {
		if members == 0 {
			buf.WriteByte('{')
		} else {
			buf.WriteByte(',')
		}
		members++
	}

	for _, attr := range l.Attributes {
		value := Render(attr.Layout, entry)
		if value == "" {
			continue
		}
		open()
		buf.WriteByte('"')
		appendJSONString(buf, attr.Name)
		buf.WriteString(`":"`)
		appendJSONString(buf, value)
		buf.WriteByte('"')
	}

	if l.IncludeEventProperties {
		for _, field := range entry.Fields {
			open()
			appendJSONField(buf, field)
		}
	}

	if l.IncludeScopeProperties {
		for _, field := range entry.Scope {
			open()
			appendJSONField(buf, field)
		}
	}

	if members == 0 {
		buf.Truncate(start)
		return
	}
	buf.WriteByte('}')
}

func appendJSONField(buf *bytes.Buffer, field core.Field) {
	buf.WriteByte('"')
	appendJSONString(buf, field.Key)
	buf.WriteString(`":`)
	appendJSONFieldValue(buf, field)
}

// appendJSONString writes a JSON-escaped string (without surrounding quotes) to the buffer
func appendJSONString(buf *bytes.Buffer, s string) {
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		// Flush unescaped prefix
		if start < i {
			buf.WriteString(s[start:i])
		}
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexChars[c>>4])
			buf.WriteByte(hexChars[c&0x0f])
		}
		start = i + 1
	}
	// Flush remaining
	if start < len(s) {
		buf.WriteString(s[start:])
	}
}

var hexChars = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

// appendJSONFieldValue writes a JSON-encoded field value to the buffer
func appendJSONFieldValue(buf *bytes.Buffer, field core.Field) {
	switch field.Type {
	case core.StringType:
		buf.WriteByte('"')
		appendJSONString(buf, field.Str)
		buf.WriteByte('"')
	case core.IntType, core.Int64Type:
		buf.Write(strconv.AppendInt(buf.AvailableBuffer(), field.Int64, 10))
	case core.Float64Type:
		if math.IsNaN(field.Float64) || math.IsInf(field.Float64, 0) {
			// JSON has no literal for these
			buf.WriteByte('"')
			buf.Write(strconv.AppendFloat(buf.AvailableBuffer(), field.Float64, 'f', -1, 64))
			buf.WriteByte('"')
			return
		}
		buf.Write(strconv.AppendFloat(buf.AvailableBuffer(), field.Float64, 'f', -1, 64))
	case core.BoolType:
		buf.Write(strconv.AppendBool(buf.AvailableBuffer(), field.Int64 == 1))
	case core.TimeType:
		buf.WriteByte('"')
		buf.Write(time.Unix(0, field.Int64).AppendFormat(buf.AvailableBuffer(), time.RFC3339Nano))
		buf.WriteByte('"')
	case core.DurationType:
		buf.Write(strconv.AppendInt(buf.AvailableBuffer(), field.Int64, 10))
	default:
		// Errors and arbitrary values render one level deep, as strings
		buf.WriteByte('"')
		appendJSONString(buf, field.StringValue())
		buf.WriteByte('"')
	}
}
