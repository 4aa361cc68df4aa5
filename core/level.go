package core

import "strings"

// Level represents the severity level of a log entry. Levels are totally
// ordered; targets may rely on plain comparisons between them.
type Level int8

const (
	// TraceLevel for very fine grained diagnostics
	TraceLevel Level = iota
	// DebugLevel for detailed debugging information
	DebugLevel
	// InfoLevel for general informational messages (default)
	InfoLevel
	// WarnLevel for warning messages
	WarnLevel
	// ErrorLevel for error messages
	ErrorLevel
	// FatalLevel for fatal messages (causes os.Exit(1))
	FatalLevel
	// PanicLevel for panic messages (causes panic)
	PanicLevel
	// OffLevel disables logging when used as a minimum level
	OffLevel
)

// NumLevels is the number of defined levels, used to size per-level tables.
const NumLevels = int(OffLevel) + 1

var levelNames = [NumLevels]string{
	TraceLevel: "TRACE",
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
	FatalLevel: "FATAL",
	PanicLevel: "PANIC",
	OffLevel:   "OFF",
}

// String returns the string representation of the level
func (l Level) String() string {
	if l < 0 || int(l) >= NumLevels {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Index returns the level as a table index, clamped to the defined range.
func (l Level) Index() int {
	switch {
	case l < 0:
		return 0
	case int(l) >= NumLevels:
		return NumLevels - 1
	default:
		return int(l)
	}
}

// ParseLevel converts a string to a Level. Unknown strings yield InfoLevel
// and ok=false.
func ParseLevel(s string) (level Level, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TraceLevel, true
	case "DEBUG":
		return DebugLevel, true
	case "INFO":
		return InfoLevel, true
	case "WARN", "WARNING":
		return WarnLevel, true
	case "ERROR":
		return ErrorLevel, true
	case "FATAL":
		return FatalLevel, true
	case "PANIC":
		return PanicLevel, true
	case "OFF", "NONE":
		return OffLevel, true
	default:
		return InfoLevel, false
	}
}
