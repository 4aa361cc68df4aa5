package loupehandler

import (
	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/layout"
)

// SourceMode selects how the call site of an entry is resolved
type SourceMode uint8

const (
	// SourceCallerInfo uses the caller info captured by the logger
	SourceCallerInfo SourceMode = iota
	// SourceStackFrame resolves the captured program counter
	SourceStackFrame
)

// String returns the name of the source mode
func (m SourceMode) String() string {
	switch m {
	case SourceCallerInfo:
		return "callerinfo"
	case SourceStackFrame:
		return "stackframe"
	default:
		return "unknown"
	}
}

// captureMode is the logger capture a source mode depends on
func (m SourceMode) captureMode() core.CaptureMode {
	if m == SourceStackFrame {
		return core.CaptureFrame
	}
	return core.CaptureCaller
}

// DetailsSpec describes the JSON details attached to every message.
type DetailsSpec struct {
	IncludeEventProperties bool
	IncludeScopeProperties bool
	// ContextProperties are extra named values rendered by their own layouts
	ContextProperties []layout.Attribute
}

// Config is the construction-time configuration of a Handler. It is
// never modified once the handler is built.
type Config struct {
	Name            string
	IncludeCallSite bool
	SourceMode      SourceMode

	// Layout renders the message body; an empty result falls back to the
	// entry's formatted message.
	Layout layout.Layout
	// Category renders the category; an empty result falls back to the
	// logger name.
	Category layout.Layout
	// Caption renders the caption; an empty result lets the agent derive
	// it from the first line of the message.
	Caption layout.Layout
	// MessageDetails renders the details. When nil, Details is used.
	MessageDetails layout.Layout
	// Details is the optional JSON details specification.
	Details *DetailsSpec
}

// DefaultConfig returns the configuration of the "Loupe" target
func DefaultConfig() Config {
	return Config{
		Name:            "Loupe",
		IncludeCallSite: true,
		SourceMode:      SourceCallerInfo,
		Layout:          layout.MustParse("${message}"),
		Category:        layout.MustParse("${logger}"),
	}
}

// GibraltarConfig returns the configuration of the legacy "Gibraltar"
// target: stack frame call sites, the formatted message and the logger
// name as category, no caption and no details.
func GibraltarConfig() Config {
	return Config{
		Name:            "Gibraltar",
		IncludeCallSite: true,
		SourceMode:      SourceStackFrame,
	}
}

// IncludeEventProperties reports whether event fields go into the details
func (c Config) IncludeEventProperties() bool {
	return c.Details != nil && c.Details.IncludeEventProperties
}

// IncludeScopeProperties reports whether scope fields go into the details
func (c Config) IncludeScopeProperties() bool {
	return c.Details != nil && c.Details.IncludeScopeProperties
}

// ContextProperties returns the extra details attributes
func (c Config) ContextProperties() []layout.Attribute {
	if c.Details == nil {
		return nil
	}
	return c.Details.ContextProperties
}

// DetailsLayout returns the layout used for message details, or nil when
// no details are configured.
func (c Config) DetailsLayout() layout.Layout {
	if c.MessageDetails != nil {
		return c.MessageDetails
	}
	if c.Details == nil {
		return nil
	}
	attrs := make([]layout.Attribute, len(c.Details.ContextProperties))
	copy(attrs, c.Details.ContextProperties)
	return &layout.JSONLayout{
		Attributes:             attrs,
		IncludeEventProperties: c.Details.IncludeEventProperties,
		IncludeScopeProperties: c.Details.IncludeScopeProperties,
	}
}

// CaptureMode returns the call-site data the configuration needs
func (c Config) CaptureMode() core.CaptureMode {
	if !c.IncludeCallSite {
		return core.CaptureNone
	}
	return c.SourceMode.captureMode()
}
