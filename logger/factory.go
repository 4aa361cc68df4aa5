package logger

import (
	"sync"

	"github.com/philipp01105/nlog-loupe/handler"
)

// Factory hands out named loggers that share one configuration. Loggers
// are created on first use and cached by name.
type Factory struct {
	template *Builder

	mu      sync.RWMutex
	loggers map[string]*Logger
}

// NewFactory creates a factory that builds every logger from a copy of b
func NewFactory(b *Builder) *Factory {
	return &Factory{
		template: b.clone(),
		loggers:  make(map[string]*Logger),
	}
}

// GetLogger returns the logger named name, creating it on first use
func (f *Factory) GetLogger(name string) *Logger {
	f.mu.RLock()
	l, ok := f.loggers[name]
	f.mu.RUnlock()
	if ok {
		return l
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.loggers[name]; ok {
		return l
	}
	l = f.template.clone().WithName(name).Build()
	f.loggers[name] = l
	return l
}

// Handler returns the handler shared by the factory's loggers
func (f *Factory) Handler() handler.Handler {
	return f.template.handler
}

// Close closes the shared handler
func (f *Factory) Close() error {
	if f.template.handler == nil {
		return nil
	}
	return f.template.handler.Close()
}
