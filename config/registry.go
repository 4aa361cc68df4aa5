package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/philipp01105/nlog-loupe/handler"
	"github.com/philipp01105/nlog-loupe/handler/consolehandler"
	"github.com/philipp01105/nlog-loupe/handler/filehandler"
	"github.com/philipp01105/nlog-loupe/handler/loupehandler"
	"github.com/philipp01105/nlog-loupe/layout"
	"github.com/philipp01105/nlog-loupe/loupe"
)

// ErrUnknownTarget is returned for a target type with no registered factory
var ErrUnknownTarget = errors.New("config: unknown target type")

// Env carries the shared collaborators handed to every target factory
type Env struct {
	Agent       *loupe.Agent
	AgentConfig loupe.AgentConfig
	Diagnostics *zap.Logger
	Stdout      io.Writer
}

// Factory creates a handler from a target spec
type Factory func(spec TargetSpec, env Env) (handler.Handler, error)

// Registry maps target type names to factories. Names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the Loupe, Gibraltar, Console and
// File targets
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("Loupe", newLoupeTarget)
	r.Register("Gibraltar", newGibraltarTarget)
	r.Register("Console", newConsoleTarget)
	r.Register("File", newFileTarget)
	return r
}

// Register adds or replaces the factory for name
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Get returns the factory for name
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	return f, nil
}

// Types returns the registered type names, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates one handler per target and combines them. Handlers built
// before a failure are closed.
func (r *Registry) Build(f *File, env Env) (*handler.MultiHandler, error) {
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Diagnostics == nil {
		env.Diagnostics = zap.NewNop()
	}

	handlers := make([]handler.Handler, 0, len(f.Targets))
	for i, spec := range f.Targets {
		factory, err := r.Get(spec.Type)
		if err == nil {
			var h handler.Handler
			h, err = factory(spec, env)
			if err == nil {
				handlers = append(handlers, h)
				continue
			}
		}
		_ = handler.NewMultiHandler(handlers...).Close()
		return nil, fmt.Errorf("config: target %d (%s): %w", i, spec.Type, err)
	}
	return handler.NewMultiHandler(handlers...), nil
}

func parseLayout(field, text string) (layout.Layout, error) {
	if text == "" {
		return nil, nil
	}
	l, err := layout.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return l, nil
}

func newLoupeTarget(spec TargetSpec, env Env) (handler.Handler, error) {
	return buildLoupe(loupehandler.NewBuilder(env.Agent), spec, env)
}

func newGibraltarTarget(spec TargetSpec, env Env) (handler.Handler, error) {
	return buildLoupe(loupehandler.NewGibraltarBuilder(env.Agent), spec, env)
}

func buildLoupe(b *loupehandler.Builder, spec TargetSpec, env Env) (handler.Handler, error) {
	if env.Agent == nil {
		return nil, loupehandler.ErrNoWriter
	}
	if spec.Name != "" {
		b.WithName(spec.Name)
	}
	if spec.IncludeCallSite != nil {
		b.WithCallSite(*spec.IncludeCallSite)
	}
	switch strings.ToLower(spec.SourceMode) {
	case "":
	case "callerinfo":
		b.WithSourceMode(loupehandler.SourceCallerInfo)
	case "stackframe":
		b.WithSourceMode(loupehandler.SourceStackFrame)
	default:
		return nil, fmt.Errorf("unknown sourceMode %q", spec.SourceMode)
	}
	b.WithEventProperties(spec.IncludeEventProperties)
	b.WithScopeProperties(spec.IncludeScopeProperties)

	for _, p := range spec.ContextProperties {
		l, err := parseLayout("contextProperties."+p.Name, p.Layout)
		if err != nil {
			return nil, err
		}
		if l != nil {
			b.WithContextProperty(p.Name, l)
		}
	}

	layouts := []struct {
		field string
		text  string
		set   func(layout.Layout) *loupehandler.Builder
	}{
		{"layout", spec.Layout, b.WithLayout},
		{"category", spec.Category, b.WithCategory},
		{"caption", spec.Caption, b.WithCaption},
		{"messageDetails", spec.MessageDetails, b.WithMessageDetails},
	}
	for _, l := range layouts {
		parsed, err := parseLayout(l.field, l.text)
		if err != nil {
			return nil, err
		}
		if parsed != nil {
			l.set(parsed)
		}
	}

	h, err := b.
		WithSession(env.AgentConfig).
		WithDiagnostics(env.Diagnostics).
		Build()
	if err != nil {
		return nil, err
	}
	return h, nil
}

func newConsoleTarget(spec TargetSpec, env Env) (handler.Handler, error) {
	l, err := parseLayout("layout", spec.Layout)
	if err != nil {
		return nil, err
	}
	return consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
		Writer:     env.Stdout,
		Layout:     l,
		Async:      spec.Async,
		BufferSize: spec.BufferSize,
	}), nil
}

func newFileTarget(spec TargetSpec, env Env) (handler.Handler, error) {
	l, err := parseLayout("layout", spec.Layout)
	if err != nil {
		return nil, err
	}
	return filehandler.NewFileHandler(filehandler.FileConfig{
		Filename:       spec.FileName,
		Layout:         l,
		Async:          spec.Async,
		BufferSize:     spec.BufferSize,
		MaxSize:        spec.MaxSize,
		MaxBackups:     spec.MaxBackups,
		RotateInterval: spec.RotateInterval,
	})
}
