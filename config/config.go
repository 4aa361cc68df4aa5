// Package config loads the YAML configuration of the nlog-loupe bridge and
// turns its target list into handlers through a typed registry.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/philipp01105/nlog-loupe/core"
	"github.com/philipp01105/nlog-loupe/loupe"
)

// Environment variables that override the file
const (
	EnvEndpoint = "LOUPE_ENDPOINT"
	EnvAPIKey   = "LOUPE_API_KEY"
	EnvMinLevel = "NLOG_MIN_LEVEL"
)

// File is the configuration file
type File struct {
	Agent    AgentSection `yaml:"agent"`
	MinLevel string       `yaml:"minLevel"`
	Targets  []TargetSpec `yaml:"targets"`
}

// AgentSection configures the Loupe agent session and its sinks
type AgentSection struct {
	Product       string        `yaml:"product"`
	Application   string        `yaml:"application"`
	Version       string        `yaml:"version"`
	Endpoint      string        `yaml:"endpoint,omitempty"` // HTTP sink base URL, empty disables it
	APIKey        string        `yaml:"apiKey,omitempty"`
	QueueSize     int           `yaml:"queueSize,omitempty"`
	BatchSize     int           `yaml:"batchSize,omitempty"`
	FlushInterval time.Duration `yaml:"flushInterval,omitempty"`
	Console       bool          `yaml:"console"` // write messages to the console through zap
}

// PropertySpec is a named details attribute
type PropertySpec struct {
	Name   string `yaml:"name"`
	Layout string `yaml:"layout"`
}

// TargetSpec configures one target. Type selects the registry factory;
// the remaining keys are read by the factories that use them.
type TargetSpec struct {
	Type string `yaml:"type"`
	Name string `yaml:"name,omitempty"`

	// Loupe and Gibraltar targets
	IncludeCallSite        *bool          `yaml:"includeCallSite,omitempty"`
	SourceMode             string         `yaml:"sourceMode,omitempty"` // callerinfo or stackframe
	IncludeEventProperties bool           `yaml:"includeEventProperties,omitempty"`
	IncludeScopeProperties bool           `yaml:"includeScopeProperties,omitempty"`
	ContextProperties      []PropertySpec `yaml:"contextProperties,omitempty"`
	Category               string         `yaml:"category,omitempty"`
	Caption                string         `yaml:"caption,omitempty"`
	MessageDetails         string         `yaml:"messageDetails,omitempty"`

	// Layout renders the message of every target type
	Layout string `yaml:"layout,omitempty"`

	// Console and File targets
	Async      bool `yaml:"async,omitempty"`
	BufferSize int  `yaml:"bufferSize,omitempty"`

	// File target
	FileName       string        `yaml:"fileName,omitempty"`
	MaxSize        int64         `yaml:"maxSize,omitempty"`
	MaxBackups     int           `yaml:"maxBackups,omitempty"`
	RotateInterval time.Duration `yaml:"rotateInterval,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *File {
	return &File{
		Agent: AgentSection{
			Product:     "nlog-loupe",
			Application: "BusyWork",
			Console:     true,
		},
		MinLevel: "trace",
		Targets:  []TargetSpec{{Type: "Loupe", Name: "loupe"}},
	}
}

// Load reads the configuration file at path on top of the defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (*File, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			// Targets from the file replace the default target list
			cfg.Targets = nil
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *File) applyEnv() {
	f.Agent.Endpoint = getenv(EnvEndpoint, f.Agent.Endpoint)
	f.Agent.APIKey = getenv(EnvAPIKey, f.Agent.APIKey)
	f.MinLevel = getenv(EnvMinLevel, f.MinLevel)
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// Level returns the parsed minimum level. An empty value means trace.
func (f *File) Level() (core.Level, error) {
	if f.MinLevel == "" {
		return core.TraceLevel, nil
	}
	level, ok := core.ParseLevel(f.MinLevel)
	if !ok {
		return level, fmt.Errorf("config: unknown level %q", f.MinLevel)
	}
	return level, nil
}

// AgentConfig builds the agent session configuration. Messages go to
// console through a ZapSink when enabled and to the HTTP collector when an
// endpoint is set. diag receives the agent's own diagnostics.
func (f *File) AgentConfig(console, diag *zap.Logger) (loupe.AgentConfig, error) {
	a := f.Agent
	cfg := loupe.AgentConfig{
		Product:       a.Product,
		Application:   a.Application,
		Version:       a.Version,
		QueueSize:     a.QueueSize,
		BatchSize:     a.BatchSize,
		FlushInterval: a.FlushInterval,
		Diagnostics:   diag,
	}
	if a.Console && console != nil {
		cfg.Sinks = append(cfg.Sinks, loupe.NewZapSink(console))
	}
	if a.Endpoint != "" {
		sink, err := loupe.NewHTTPSink(loupe.HTTPSinkOptions{
			Endpoint: a.Endpoint,
			APIKey:   a.APIKey,
		})
		if err != nil {
			return loupe.AgentConfig{}, fmt.Errorf("config: http sink: %w", err)
		}
		cfg.Sinks = append(cfg.Sinks, sink)
	}
	return cfg, nil
}
