package main

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/nlog-loupe/config"
	"github.com/philipp01105/nlog-loupe/logger"
	"github.com/philipp01105/nlog-loupe/loupe"
)

const shutdownReason = "Application shutting down"

// app wires the configuration, the agent session and the logger factory.
type app struct {
	factory *logger.Factory
	agent   *loupe.Agent
	diag    *zap.Logger
	log     *logger.Logger
}

func newApp(configPath string, debug bool, stdout io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level, _ := cfg.Level()

	diag := zap.NewNop()
	if debug {
		if diag, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("busywork: diagnostics logger: %w", err)
		}
	}

	agentCfg, err := cfg.AgentConfig(consoleLogger(stdout), diag)
	if err != nil {
		return nil, err
	}
	agent := loupe.NewAgent()
	agent.StartSession(agentCfg)

	h, err := config.DefaultRegistry().Build(cfg, config.Env{
		Agent:       agent,
		AgentConfig: agentCfg,
		Diagnostics: diag,
		Stdout:      stdout,
	})
	if err != nil {
		_ = agent.EndSession("configuration failed")
		return nil, err
	}

	factory := logger.NewFactory(logger.NewBuilder().WithHandler(h).WithLevel(level))
	return &app{
		factory: factory,
		agent:   agent,
		diag:    diag,
		log:     factory.GetLogger("Application"),
	}, nil
}

// consoleLogger is the zap logger behind the agent's console sink
func consoleLogger(w io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// Close flushes the targets and ends the agent session
func (a *app) Close(reason string) error {
	a.log.Info("Application shutting down")
	err := multierr.Append(a.factory.Close(), a.agent.EndSession(reason))
	stats := a.agent.Stats()
	a.diag.Debug("agent stats",
		zap.Uint64("written", stats.Written),
		zap.Uint64("dropped", stats.Dropped),
		zap.Uint64("failed", stats.Failed),
	)
	return err
}
