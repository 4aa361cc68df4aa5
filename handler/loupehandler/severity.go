package loupehandler

import (
	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/loupe"
)

// MapSeverity maps an nlog level to a Loupe severity. Levels are compared
// against ordered thresholds, so any level between two defined ones
// rounds down to the less severe bucket. OffLevel and above map to None.
func MapSeverity(level core.Level) loupe.Severity {
	switch {
	case level < core.InfoLevel:
		return loupe.Verbose
	case level < core.WarnLevel:
		return loupe.Information
	case level < core.ErrorLevel:
		return loupe.Warning
	case level < core.FatalLevel:
		return loupe.Error
	case level < core.OffLevel:
		return loupe.Critical
	default:
		return loupe.None
	}
}
