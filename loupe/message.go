package loupe

import (
	"strings"
	"time"
)

// LogSystem is the log system tag attached to messages written by the
// nlog bridge.
const LogSystem = "NLog"

// MessageSourceProvider describes where a message was logged from. Empty
// strings mean the value is unknown; LineNumber is 0 when FileName is empty.
type MessageSourceProvider interface {
	MethodName() string
	ClassName() string
	FileName() string
	LineNumber() int
}

// Message is one log message handed to the agent. Empty strings mean
// absent. A Message is passed by value and never mutated after Write.
type Message struct {
	Timestamp   time.Time
	Severity    Severity
	LogSystem   string
	Source      MessageSourceProvider
	User        string
	Exception   error
	Mode        WriteMode
	Details     string
	Category    string
	Caption     string
	Description string
}

// Writer accepts log messages. Implementations must be safe for
// concurrent use.
type Writer interface {
	Write(msg Message)
}

// WriterFunc adapts a function to the Writer interface
type WriterFunc func(msg Message)

// Write calls f(msg)
func (f WriterFunc) Write(msg Message) { f(msg) }

// SessionStarter is implemented by writers that own a session, such as Agent.
type SessionStarter interface {
	StartSession(cfg AgentConfig)
}

// DeriveCaption returns the caption to display for msg: the explicit
// caption when set, otherwise the first non-blank line of the description,
// otherwise the first line of the exception text.
func DeriveCaption(msg Message) string {
	if msg.Caption != "" {
		return msg.Caption
	}
	if line := firstLine(msg.Description); line != "" {
		return line
	}
	if msg.Exception != nil {
		return firstLine(msg.Exception.Error())
	}
	return ""
}

func firstLine(s string) string {
	for len(s) > 0 {
		line := s
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			line, s = s[:i], s[i+1:]
		} else {
			s = ""
		}
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
