package loupehandler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/philipp01105/nlog-loupe/layout"
	"github.com/philipp01105/nlog-loupe/loupe"
)

// ErrNoWriter is returned by Build when no loupe.Writer was supplied
var ErrNoWriter = errors.New("loupehandler: writer is nil")

// Builder builds a Handler. Each With method returns the builder for
// chaining; the configuration is copied on Build.
type Builder struct {
	cfg     Config
	writer  loupe.Writer
	log     *zap.Logger
	session *loupe.AgentConfig
}

// NewBuilder creates a builder for a "Loupe" target writing to w
func NewBuilder(w loupe.Writer) *Builder {
	return &Builder{cfg: DefaultConfig(), writer: w}
}

// NewGibraltarBuilder creates a builder preset as the legacy "Gibraltar" target
func NewGibraltarBuilder(w loupe.Writer) *Builder {
	return &Builder{cfg: GibraltarConfig(), writer: w}
}

// WithName sets the target name
func (b *Builder) WithName(name string) *Builder {
	b.cfg.Name = name
	return b
}

// WithCallSite enables or disables call-site resolution
func (b *Builder) WithCallSite(enabled bool) *Builder {
	b.cfg.IncludeCallSite = enabled
	return b
}

// WithSourceMode selects how call sites are resolved
func (b *Builder) WithSourceMode(mode SourceMode) *Builder {
	b.cfg.SourceMode = mode
	return b
}

// details returns the details spec, creating it when allocate is set
func (b *Builder) details(allocate bool) *DetailsSpec {
	if b.cfg.Details == nil && allocate {
		b.cfg.Details = &DetailsSpec{}
	}
	return b.cfg.Details
}

// WithEventProperties includes event fields in the JSON details
func (b *Builder) WithEventProperties(enabled bool) *Builder {
	if d := b.details(enabled); d != nil {
		d.IncludeEventProperties = enabled
	}
	return b
}

// WithScopeProperties includes context scope fields in the JSON details
func (b *Builder) WithScopeProperties(enabled bool) *Builder {
	if d := b.details(enabled); d != nil {
		d.IncludeScopeProperties = enabled
	}
	return b
}

// WithContextProperty adds a named details attribute rendered by l
func (b *Builder) WithContextProperty(name string, l layout.Layout) *Builder {
	d := b.details(true)
	d.ContextProperties = append(d.ContextProperties, layout.Attribute{Name: name, Layout: l})
	return b
}

// WithLayout sets the message layout
func (b *Builder) WithLayout(l layout.Layout) *Builder {
	b.cfg.Layout = l
	return b
}

// WithCategory sets the category layout
func (b *Builder) WithCategory(l layout.Layout) *Builder {
	b.cfg.Category = l
	return b
}

// WithCaption sets the caption layout
func (b *Builder) WithCaption(l layout.Layout) *Builder {
	b.cfg.Caption = l
	return b
}

// WithMessageDetails sets an explicit details layout, replacing the JSON details
func (b *Builder) WithMessageDetails(l layout.Layout) *Builder {
	b.cfg.MessageDetails = l
	return b
}

// WithDiagnostics sets the zap logger for the handler's own output
func (b *Builder) WithDiagnostics(l *zap.Logger) *Builder {
	b.log = l
	return b
}

// WithSession makes Build start the writer's session with cfg, when the
// writer owns one.
func (b *Builder) WithSession(cfg loupe.AgentConfig) *Builder {
	b.session = &cfg
	return b
}

// Build creates the handler
func (b *Builder) Build() (*Handler, error) {
	if b.writer == nil {
		return nil, ErrNoWriter
	}
	cfg := b.cfg
	if b.cfg.Details != nil {
		d := *b.cfg.Details
		d.ContextProperties = append([]layout.Attribute(nil), d.ContextProperties...)
		cfg.Details = &d
	}

	if b.session != nil {
		if s, ok := b.writer.(loupe.SessionStarter); ok {
			s.StartSession(*b.session)
		}
	}
	return newHandler(cfg, b.writer, b.log), nil
}
